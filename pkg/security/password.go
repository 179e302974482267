package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/angelmondragon/staffstore-backend/pkg/config"
	"golang.org/x/crypto/argon2"
)

// ErrInvalidHash signals a malformed Argon2id hash string.
var ErrInvalidHash = errors.New("invalid argon2id hash")

const hashPrefix = "$argon2id$"

// ArgonParams are the Argon2id cost settings recorded in every encoded hash.
type ArgonParams struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

// ParamsFromConfig clamps configured costs into ranges argon2 accepts.
func ParamsFromConfig(cfg config.PasswordConfig) ArgonParams {
	return ArgonParams{
		Memory:      uint32(clamp(cfg.ArgonMemoryKB, 8, 512*1024)),
		Time:        uint32(clamp(cfg.ArgonTime, 1, 10)),
		Parallelism: uint8(clamp(cfg.ArgonParallelism, 1, 255)),
		SaltLen:     uint32(clamp(cfg.ArgonSaltLen, 8, 64)),
		KeyLen:      uint32(clamp(cfg.ArgonKeyLen, 16, 64)),
	}
}

// Hash is a decoded `$argon2id$v=19$m=..,t=..,p=..$salt$key` string.
type Hash struct {
	Params ArgonParams
	Salt   []byte
	Key    []byte
}

// HashPassword derives a fresh salted Argon2id hash and returns it encoded.
func HashPassword(password string, cfg config.PasswordConfig) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}

	params := ParamsFromConfig(cfg)
	salt := make([]byte, params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	h := Hash{Params: params, Salt: salt, Key: derive(password, salt, params)}
	return h.String(), nil
}

// VerifyPassword reports whether password matches the encoded hash.
func VerifyPassword(password, encoded string) (bool, error) {
	h, err := ParseHash(encoded)
	if err != nil {
		return false, err
	}
	return h.Matches(password), nil
}

// Matches recomputes the key with the stored salt and costs and compares in constant time.
func (h *Hash) Matches(password string) bool {
	return subtle.ConstantTimeCompare(h.Key, derive(password, h.Salt, h.Params)) == 1
}

func (h *Hash) String() string {
	enc := base64.RawStdEncoding
	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		hashPrefix, argon2.Version,
		h.Params.Memory, h.Params.Time, h.Params.Parallelism,
		enc.EncodeToString(h.Salt), enc.EncodeToString(h.Key))
}

// ParseHash decodes an encoded Argon2id hash. The version and all three cost
// parameters must be present.
func ParseHash(encoded string) (*Hash, error) {
	parts := strings.Split(strings.TrimSpace(encoded), "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return nil, ErrInvalidHash
	}
	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrInvalidHash, parts[2])
	}

	var (
		params ArgonParams
		seen   int
	)
	for _, token := range strings.Split(parts[3], ",") {
		key, value, ok := strings.Cut(token, "=")
		if !ok {
			return nil, ErrInvalidHash
		}
		var bits int
		switch key {
		case "m", "t":
			bits = 32
		case "p":
			bits = 8
		default:
			return nil, fmt.Errorf("%w: unknown parameter %q", ErrInvalidHash, key)
		}
		n, err := strconv.ParseUint(value, 10, bits)
		if err != nil || n == 0 {
			return nil, fmt.Errorf("%w: bad %s", ErrInvalidHash, key)
		}
		switch key {
		case "m":
			params.Memory = uint32(n)
		case "t":
			params.Time = uint32(n)
		case "p":
			params.Parallelism = uint8(n)
		}
		seen++
	}
	if seen != 3 {
		return nil, fmt.Errorf("%w: expected m, t and p", ErrInvalidHash)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return nil, fmt.Errorf("%w: bad salt", ErrInvalidHash)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return nil, fmt.Errorf("%w: bad key", ErrInvalidHash)
	}
	params.SaltLen = uint32(len(salt))
	params.KeyLen = uint32(len(key))

	return &Hash{Params: params, Salt: salt, Key: key}, nil
}

func derive(password string, salt []byte, p ArgonParams) []byte {
	return argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Parallelism, p.KeyLen)
}

func clamp(value, lo, hi int) int {
	return min(max(value, lo), hi)
}

// RandomSecret returns n random bytes encoded as unpadded URL-safe base64.
func RandomSecret(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("length must be positive")
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ConstantTimeEqual compares two secrets without leaking where they differ.
func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
