package cpf

import (
	"context"
	"fmt"
	"regexp"

	"github.com/cucumber/godog"
)

var formatted = regexp.MustCompile(`^\d{3}\.\d{3}\.\d{3}-\d{2}$`)

// TestContext is the slice of the scenario context CPF steps need.
type TestContext interface {
	GET(path string) error
	POST(path string, body any) error
	GetLastStatusCode() int
	GetResponseField(field string) (any, error)
	Remember(name, value string)
	Recall(name string) (string, bool)
}

// RegisterSteps registers CPF generation and validation steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &cpfSteps{tc: tc}

	ctx.Step(`^I generate a CPF$`, steps.generate)
	ctx.Step(`^the generated CPF should be formatted$`, steps.generatedShouldBeFormatted)
	ctx.Step(`^the generated CPF should validate$`, steps.generatedShouldValidate)
	ctx.Step(`^I validate the CPF "([^"]*)"$`, steps.validate)
	ctx.Step(`^the CPF should be (valid|invalid)$`, steps.shouldBe)
}

type cpfSteps struct {
	tc TestContext
}

func (s *cpfSteps) generate(ctx context.Context) error {
	if err := s.tc.GET("/api/cpf/generate"); err != nil {
		return err
	}
	if code := s.tc.GetLastStatusCode(); code != 200 {
		return fmt.Errorf("generate returned %d", code)
	}
	for _, field := range []string{"cpf", "digits"} {
		v, err := s.tc.GetResponseField(field)
		if err != nil {
			return err
		}
		s.tc.Remember("generated_"+field, fmt.Sprint(v))
	}
	return nil
}

func (s *cpfSteps) generatedShouldBeFormatted(ctx context.Context) error {
	v, ok := s.tc.Recall("generated_cpf")
	if !ok {
		return fmt.Errorf("no CPF generated in this scenario")
	}
	if !formatted.MatchString(v) {
		return fmt.Errorf("generated CPF %q is not formatted as XXX.XXX.XXX-XX", v)
	}
	return nil
}

func (s *cpfSteps) generatedShouldValidate(ctx context.Context) error {
	v, ok := s.tc.Recall("generated_digits")
	if !ok {
		return fmt.Errorf("no CPF generated in this scenario")
	}
	if err := s.validate(ctx, v); err != nil {
		return err
	}
	return s.shouldBe(ctx, "valid")
}

func (s *cpfSteps) validate(ctx context.Context, value string) error {
	return s.tc.POST("/api/cpf/validate", map[string]string{"cpf": value})
}

func (s *cpfSteps) shouldBe(ctx context.Context, verdict string) error {
	if code := s.tc.GetLastStatusCode(); code != 200 {
		return fmt.Errorf("validate returned %d", code)
	}
	v, err := s.tc.GetResponseField("valid")
	if err != nil {
		return err
	}
	if got, want := v == true, verdict == "valid"; got != want {
		return fmt.Errorf("expected CPF to be %s, got valid=%v", verdict, v)
	}
	return nil
}
