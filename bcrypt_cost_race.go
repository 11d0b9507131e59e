//go:build race

package auth

import "golang.org/x/crypto/bcrypt"

func passwordHashCost() int {
	// Lower cost so race-enabled test runs stay inside their timeouts.
	return bcrypt.DefaultCost
}
