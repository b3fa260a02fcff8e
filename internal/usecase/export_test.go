package usecase

import "referral-backend/internal/domain"

// SetAliasGenerator replaces the proxy alias source for tests.
func SetAliasGenerator(uc domain.ApplicationUsecase, fn func(string) (string, error)) {
	uc.(*applicationUsecase).newAlias = fn
}
