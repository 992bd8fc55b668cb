package steps

import "time"

func (fc *FeatureContext) theIdleTimeoutIs(idle, warning string) error {
	idleTimeout, err := time.ParseDuration(idle)
	if err != nil {
		return err
	}
	warningDuration, err := time.ParseDuration(warning)
	if err != nil {
		return err
	}
	fc.console.SetIdleTimeout(idleTimeout, warningDuration)
	return nil
}

func (fc *FeatureContext) iLeaveTheConsoleOpenWithoutActivity() error {
	fc.run("watch")
	return nil
}
