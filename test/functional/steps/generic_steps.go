package steps

import (
	"opsconsole/internal/console"
	"opsconsole/internal/shared_kernel/domain"
)

func (fc *FeatureContext) theCommandShouldSucceed() error {
	fc.require.NoError(fc.err, "output: %s", fc.output)
	return nil
}

func (fc *FeatureContext) theCommandShouldFail() error {
	fc.require.Error(fc.err, "output: %s", fc.output)
	return nil
}

func (fc *FeatureContext) theConsoleShouldShow(text string) error {
	fc.require.Contains(fc.output, text)
	return nil
}

func (fc *FeatureContext) theConsoleShouldBeOnTheDashboard() error {
	fc.require.Equal(console.Dashboard(domain.TenantSchema(fc.tenant)), fc.console.History().Current())
	return nil
}

func (fc *FeatureContext) theConsoleShouldBeOnTheLoginPage() error {
	fc.require.Equal(console.Login(domain.TenantSchema(fc.tenant)), fc.console.History().Current())
	return nil
}

func (fc *FeatureContext) theConsoleShouldBeOnTheList(entity string) error {
	fc.require.Equal(console.List(domain.TenantSchema(fc.tenant), entity), fc.console.History().Current())
	return nil
}

func (fc *FeatureContext) theConsoleShouldNotHaveNavigated() error {
	fc.require.Empty(fc.console.History().Routes())
	return nil
}

func (fc *FeatureContext) iList(entity string) error {
	fc.run("list", entity)
	return nil
}
