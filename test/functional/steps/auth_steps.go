package steps

import (
	"opsconsole/internal/infra/storage"
	"opsconsole/internal/sandbox"
)

func (fc *FeatureContext) iAmOnTheLoginPageOfTenant(tenant string) error {
	fc.tenant = tenant
	fc.email = sandbox.AdminEmail(tenant)
	return nil
}

func (fc *FeatureContext) iAmSignedInAsTheTenantAdministrator() error {
	fc.run("login", "--email", fc.email, "--password", sandbox.DefaultPassword)
	fc.require.NoError(fc.err, "output: %s", fc.output)
	fc.run("verify", "--email", fc.email, "--code", sandbox.DefaultOTP)
	fc.require.NoError(fc.err, "output: %s", fc.output)
	fc.mark = fc.sandbox.Mark()
	return nil
}

func (fc *FeatureContext) iSignInAsTheTenantAdministratorWithPassword(password string) error {
	fc.run("login", "--email", fc.email, "--password", password)
	return nil
}

func (fc *FeatureContext) iEnterTheVerificationCode(code string) error {
	fc.run("verify", "--email", fc.email, "--code", code)
	return nil
}

func (fc *FeatureContext) iAskForANewVerificationCode() error {
	fc.run("resend", "--email", fc.email)
	return nil
}

func (fc *FeatureContext) iLogOut() error {
	fc.run("logout")
	return nil
}

func (fc *FeatureContext) theSessionShouldBeStored() error {
	for _, key := range []string{storage.KeyAccessToken, storage.KeyRefreshToken} {
		value, found, err := storage.GetJSON[string](fc.ctx, fc.console.Storage(), key)
		fc.require.NoError(err)
		fc.require.True(found, "%s is not stored", key)
		fc.require.NotEmpty(value)
	}

	tenant, found, err := storage.GetJSON[string](fc.ctx, fc.console.Storage(), storage.KeyTenantSchemaName)
	fc.require.NoError(err)
	fc.require.True(found)
	fc.require.Equal(fc.tenant, tenant)
	return nil
}

func (fc *FeatureContext) noSessionShouldBeStored() error {
	for _, key := range []string{storage.KeyAccessToken, storage.KeyRefreshToken} {
		_, found, err := storage.GetJSON[string](fc.ctx, fc.console.Storage(), key)
		fc.require.NoError(err)
		fc.require.False(found, "%s is still stored", key)
	}
	return nil
}
