package steps

import (
	"context"

	"opsconsole/internal/sandbox"
	"opsconsole/test/functional/driver"

	"github.com/cucumber/godog"
	"github.com/stretchr/testify/require"
)

type FeatureContext struct {
	sandbox *driver.Sandbox
	console *driver.ConsoleDriver
	ctx     context.Context
	tenant  string
	email   string
	output  string
	err     error
	mark    int
	require *require.Assertions
	t       godog.TestingT
}

func NewFeatureContext(sandbox *driver.Sandbox) *FeatureContext {
	return &FeatureContext{sandbox: sandbox}
}

func (fc *FeatureContext) RegisterSteps(ctx *godog.ScenarioContext) {
	// Generic steps
	ctx.Then(`^the command should succeed$`, fc.theCommandShouldSucceed)
	ctx.Then(`^the command should fail$`, fc.theCommandShouldFail)
	ctx.Then(`^the console should show "([^"]*)"$`, fc.theConsoleShouldShow)
	ctx.Then(`^the console should be on the dashboard$`, fc.theConsoleShouldBeOnTheDashboard)
	ctx.Then(`^the console should be on the login page$`, fc.theConsoleShouldBeOnTheLoginPage)
	ctx.Then(`^the console should be on the "([^"]*)" list$`, fc.theConsoleShouldBeOnTheList)
	ctx.Then(`^the console should not have navigated$`, fc.theConsoleShouldNotHaveNavigated)
	ctx.When(`^I list "([^"]*)"$`, fc.iList)

	// Auth steps
	ctx.Given(`^I am on the login page of tenant "([^"]*)"$`, fc.iAmOnTheLoginPageOfTenant)
	ctx.Given(`^I am signed in as the tenant administrator$`, fc.iAmSignedInAsTheTenantAdministrator)
	ctx.When(`^I sign in as the tenant administrator with password "([^"]*)"$`, fc.iSignInAsTheTenantAdministratorWithPassword)
	ctx.When(`^I enter the verification code "([^"]*)"$`, fc.iEnterTheVerificationCode)
	ctx.When(`^I ask for a new verification code$`, fc.iAskForANewVerificationCode)
	ctx.When(`^I log out$`, fc.iLogOut)
	ctx.Then(`^the session should be stored$`, fc.theSessionShouldBeStored)
	ctx.Then(`^no session should be stored$`, fc.noSessionShouldBeStored)

	// Inventory steps
	ctx.When(`^I create a transfer of (\d+) "([^"]*)" from "([^"]*)" to "([^"]*)"$`, fc.iCreateATransfer)
	ctx.When(`^I complete a transfer of (\d+) "([^"]*)" from "([^"]*)" to "([^"]*)"$`, fc.iCompleteATransfer)
	ctx.When(`^I scrap (\d+) "([^"]*)" at "([^"]*)" because "([^"]*)"$`, fc.iScrap)
	ctx.Then(`^no transfer should have been sent$`, fc.noTransferShouldHaveBeenSent)
	ctx.Then(`^product "([^"]*)" should have (\d+) available$`, fc.productShouldHaveAvailable)
	ctx.Then(`^the latest transfer should be "([^"]*)"$`, fc.theLatestTransferShouldBe)

	// Purchase steps
	ctx.When(`^I request (\d+) "([^"]*)" at (\d+(?:\.\d+)?) from vendor "([^"]*)" for "([^"]*)"$`, fc.iRequest)
	ctx.When(`^I request (\d+) "([^"]*)" at (\d+(?:\.\d+)?) from vendor "([^"]*)" for "([^"]*)" and send it for approval$`, fc.iRequestAndSendForApproval)
	ctx.When(`^I "([^"]*)" the latest purchase request$`, fc.iActOnTheLatestPurchaseRequest)
	ctx.Then(`^the latest purchase request should be "([^"]*)"$`, fc.theLatestPurchaseRequestShouldBe)

	// Session steps
	ctx.Given(`^the idle timeout is (\S+) with a (\S+) warning$`, fc.theIdleTimeoutIs)
	ctx.When(`^I leave the console open without activity$`, fc.iLeaveTheConsoleOpenWithoutActivity)

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		fc.t = godog.T(ctx)
		fc.require = require.New(fc.t)

		fc.reset(ctx)
		return ctx, nil
	})

	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		fc.console.Close()
		return ctx, err
	})
}

func (fc *FeatureContext) reset(ctx context.Context) {
	fc.ctx = ctx
	fc.console = driver.NewConsoleDriver(fc.sandbox)
	fc.tenant = driver.Tenant
	fc.email = sandbox.AdminEmail(driver.Tenant)
	fc.output = ""
	fc.err = nil
	fc.mark = fc.sandbox.Mark()
}

// run executes a console command with the --tenant flag and keeps its result
// for the Then steps.
func (fc *FeatureContext) run(args ...string) {
	fc.output, fc.err = fc.console.Run(fc.ctx, "", append(args, "--tenant", fc.tenant)...)
}
