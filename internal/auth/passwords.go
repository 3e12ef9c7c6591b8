package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Password hashes use the argon2id PHC string format:
// $argon2id$v=19$m=...,t=...,p=...$<salt>$<key>

type hashParams struct {
	memory      uint32
	time        uint32
	parallelism uint8
	saltLen     uint32
	keyLen      uint32
}

var defaultHashParams = hashParams{
	memory:      64 * 1024,
	time:        3,
	parallelism: 2,
	saltLen:     16,
	keyLen:      32,
}

func HashPassword(plaintext string) (string, error) {
	p := defaultHashParams

	salt := make([]byte, p.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, p.time, p.memory, p.parallelism, p.keyLen)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		p.memory, p.time, p.parallelism,
		b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// VerifyPassword compares plaintext against an encoded hash in constant
// time. A malformed hash is an error, not a mismatch.
func VerifyPassword(hash, plaintext string) (bool, error) {
	p, salt, key, err := decodeHash(hash)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(plaintext), salt, p.time, p.memory, p.parallelism, p.keyLen)
	return subtle.ConstantTimeCompare(key, candidate) == 1, nil
}

func decodeHash(hash string) (hashParams, []byte, []byte, error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return hashParams{}, nil, nil, errors.New("invalid argon2id hash format")
	}
	if parts[2] != "v=19" {
		return hashParams{}, nil, nil, errors.New("unsupported argon2 version")
	}

	var p hashParams
	for _, kv := range strings.Split(parts[3], ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return hashParams{}, nil, nil, errors.New("invalid argon2 params")
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return hashParams{}, nil, nil, fmt.Errorf("invalid argon2 param %s", k)
		}
		switch k {
		case "m":
			p.memory = uint32(n)
		case "t":
			p.time = uint32(n)
		case "p":
			if n > 255 {
				return hashParams{}, nil, nil, errors.New("invalid argon2 parallelism param")
			}
			p.parallelism = uint8(n)
		default:
			return hashParams{}, nil, nil, errors.New("unknown argon2 param")
		}
	}
	if p.memory == 0 || p.time == 0 || p.parallelism == 0 {
		return hashParams{}, nil, nil, errors.New("incomplete argon2 params")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return hashParams{}, nil, nil, errors.New("invalid argon2 salt")
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return hashParams{}, nil, nil, errors.New("invalid argon2 key")
	}
	if len(salt) == 0 || len(key) == 0 {
		return hashParams{}, nil, nil, errors.New("invalid argon2 salt/key")
	}
	p.saltLen = uint32(len(salt))
	p.keyLen = uint32(len(key))

	return p, salt, key, nil
}
