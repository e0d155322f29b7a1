//go:build race

package auth

import "golang.org/x/crypto/bcrypt"

func passwordHashCost(cost int) int {
	// Reduce cost for race-enabled builds so test suites can run with strict timeouts.
	if cost > bcrypt.DefaultCost {
		return bcrypt.DefaultCost
	}
	return cost
}
