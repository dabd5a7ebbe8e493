package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"
)

// maxUsernameAttempts bounds the search for a free username. 9000 candidates
// exist per year, so exhausting it means the space is nearly full.
const maxUsernameAttempts = 50

var ErrUsernameSpaceExhausted = errors.New("could not find a free username")

// FormatUsername renders the campus login name, e.g. "4821/MU.25".
func FormatUsername(digits int, at time.Time) string {
	return fmt.Sprintf("%04d/MU.%02d", digits, at.Year()%100)
}

// GenerateUsername picks random four-digit usernames for the current year
// until taken reports one as free.
func GenerateUsername(ctx context.Context, now time.Time, taken func(ctx context.Context, candidate string) (bool, error)) (string, error) {
	for i := 0; i < maxUsernameAttempts; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(9000))
		if err != nil {
			return "", err
		}
		candidate := FormatUsername(1000+int(n.Int64()), now)

		exists, err := taken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", ErrUsernameSpaceExhausted
}
