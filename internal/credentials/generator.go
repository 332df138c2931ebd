// Package credentials produces collision-free voucher username/password
// pairs. Uniqueness is guaranteed by reserving a contiguous block of
// monotonic sequence numbers per account under a single atomic operation;
// usernames are derived deterministically from (account, sequence) so pairs
// can never collide across concurrent batches, and sequence numbers are never
// reused even after voucher deletion.
package credentials

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// passwordAlphabet excludes ambiguous characters (0/o, 1/l) so operators can
// read voucher PINs over the phone.
const passwordAlphabet = "abcdefghijkmnpqrstuvwxyz23456789"

// Credentials is a username/password pair for one voucher
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SequenceReserver reserves contiguous sequence blocks per account. The
// reservation must be atomic: two concurrent calls never receive overlapping
// blocks. Implementations return errors.ExhaustionError once the namespace
// bound is reached.
type SequenceReserver interface {
	ReserveBlock(ctx context.Context, accountID string, count int) (start int64, err error)
}

// Generator derives credential pairs from reserved sequence numbers
type Generator struct {
	reserver       SequenceReserver
	passwordLength int
}

// NewGenerator creates a credential generator backed by the given reserver
func NewGenerator(reserver SequenceReserver, passwordLength int) *Generator {
	if passwordLength < 4 {
		passwordLength = 6
	}
	return &Generator{
		reserver:       reserver,
		passwordLength: passwordLength,
	}
}

// GenerateBatch returns count unique credential pairs for the account,
// disjoint from every pair ever issued in the account's namespace. The
// username prefix is optional; when empty it is derived from the account ID.
func (g *Generator) GenerateBatch(ctx context.Context, accountID, prefix string, count int) ([]Credentials, error) {
	if count <= 0 {
		return nil, fmt.Errorf("credential batch count must be positive, got %d", count)
	}

	start, err := g.reserver.ReserveBlock(ctx, accountID, count)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve credential block: %w", err)
	}

	if prefix == "" {
		prefix = derivePrefix(accountID)
	}

	pairs := make([]Credentials, 0, count)
	for i := 0; i < count; i++ {
		password, err := randomPassword(g.passwordLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate password: %w", err)
		}
		pairs = append(pairs, Credentials{
			Username: fmt.Sprintf("%s%05d", prefix, start+int64(i)),
			Password: password,
		})
	}

	return pairs, nil
}

// derivePrefix builds a short username prefix from the account identifier
func derivePrefix(accountID string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(accountID) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() >= 3 {
			break
		}
	}
	if b.Len() == 0 {
		return "hs"
	}
	return b.String()
}

// randomPassword draws length characters from the password alphabet using
// crypto/rand so passwords are not guessable from the sequence number.
func randomPassword(length int) (string, error) {
	max := big.NewInt(int64(len(passwordAlphabet)))
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(passwordAlphabet[n.Int64()])
	}
	return b.String(), nil
}
