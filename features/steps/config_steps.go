//go:build integration

package steps

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"video-to-audio/cmd"
	"video-to-audio/infrastructure/config"

	"github.com/cucumber/godog"
)

type configContext struct {
	tempDir    string
	configPath string
	env        map[string]string
	cfg        *config.Config
	cmdErr     error
}

// SharedConfigContext is reset before each scenario via Before hook
var SharedConfigContext *configContext

func getConfigContext() *configContext {
	return SharedConfigContext
}

func InitializeConfigScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "config-test-*")
		if err != nil {
			return c, err
		}
		SharedConfigContext = &configContext{
			tempDir:    tempDir,
			configPath: filepath.Join(tempDir, "config.yaml"),
			env:        make(map[string]string),
		}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if s := getConfigContext(); s != nil {
			os.RemoveAll(s.tempDir)
		}
		SharedConfigContext = nil
		return c, nil
	})

	ctx.Step(`^no configuration file exists$`, noConfigurationFileExists)
	ctx.Step(`^a configuration file with:$`, aConfigurationFileWith)
	ctx.Step(`^the environment variable "([^"]*)" is "([^"]*)"$`, theEnvironmentVariableIs)
	ctx.Step(`^I load the configuration$`, iLoadTheConfiguration)
	ctx.Step(`^I run config set "([^"]*)" "([^"]*)"$`, iRunConfigSet)
	ctx.Step(`^the config should have "([^"]*)" set to "([^"]*)"$`, theConfigShouldHaveSetTo)
	ctx.Step(`^the config command should fail with "([^"]*)"$`, theConfigCommandShouldFailWith)
}

func noConfigurationFileExists() error {
	s := getConfigContext()
	if _, err := os.Stat(s.configPath); err == nil {
		return fmt.Errorf("config file unexpectedly exists at %s", s.configPath)
	}
	return nil
}

func aConfigurationFileWith(content *godog.DocString) error {
	return os.WriteFile(getConfigContext().configPath, []byte(content.Content), 0644)
}

func theEnvironmentVariableIs(name, value string) error {
	getConfigContext().env[name] = value
	return nil
}

func (c *configContext) lookup(name string) (string, bool) {
	v, ok := c.env[name]
	return v, ok
}

func iLoadTheConfiguration() error {
	s := getConfigContext()
	cfg, err := config.LoadOrDefault(s.configPath)
	if err != nil {
		return fmt.Errorf("unexpected error loading config: %w", err)
	}
	if err := cfg.ApplyEnv(s.lookup); err != nil {
		return err
	}
	s.cfg = cfg
	return nil
}

func iRunConfigSet(key, value string) error {
	s := getConfigContext()
	cfg, err := config.LoadOrDefault(s.configPath)
	if err != nil {
		return err
	}
	var out bytes.Buffer
	s.cmdErr = cmd.RunConfigSetWithDependencies(cfg, s.configPath, key, value, &out)
	return nil
}

func theConfigShouldHaveSetTo(key, expected string) error {
	s := getConfigContext()
	if s.cfg == nil {
		return fmt.Errorf("config was not loaded")
	}
	return expectConfigValue(s.cfg, key, expected)
}

func theConfigCommandShouldFailWith(text string) error {
	s := getConfigContext()
	if s.cmdErr == nil {
		return fmt.Errorf("expected an error but got none")
	}
	if !strings.Contains(s.cmdErr.Error(), text) {
		return fmt.Errorf("expected error containing %q, got %q", text, s.cmdErr.Error())
	}
	return nil
}

func expectConfigValue(cfg *config.Config, key, expected string) error {
	got, err := config.NewConfigManager(cfg, "").Get(key)
	if err != nil {
		return err
	}
	if got != expected {
		return fmt.Errorf("expected %s %q, got %q", key, expected, got)
	}
	return nil
}
