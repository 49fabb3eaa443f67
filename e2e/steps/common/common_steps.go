package common

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the scenario context generic steps need.
type TestContext interface {
	GET(path string) error
	POST(path string, body any) error
	PUT(path string, body any) error
	DELETE(path string) error
	GetLastStatusCode() int
	GetLastResponseBody() []byte
	GetResponseField(field string) (any, error)
	Remember(name, value string)
	Expand(s string) string
}

// RegisterSteps registers request and assertion steps shared by every feature.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^the clinic API is healthy$`, steps.apiIsHealthy)
	ctx.Step(`^I GET "([^"]*)"$`, steps.get)
	ctx.Step(`^I DELETE "([^"]*)"$`, steps.delete)
	ctx.Step(`^I POST to "([^"]*)" with:$`, steps.postWith)
	ctx.Step(`^I PUT to "([^"]*)" with:$`, steps.putWith)

	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the error code should be "([^"]*)"$`, steps.errorCodeShouldBe)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, steps.fieldShouldEqual)
	ctx.Step(`^the response field "([^"]*)" should be (true|false)$`, steps.fieldShouldBeBool)
	ctx.Step(`^I remember the response field "([^"]*)" as "([^"]*)"$`, steps.rememberField)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) apiIsHealthy(ctx context.Context) error {
	if err := s.tc.GET("/healthz"); err != nil {
		return err
	}
	return s.statusShouldBe(ctx, 200)
}

func (s *commonSteps) get(ctx context.Context, path string) error {
	return s.tc.GET(path)
}

func (s *commonSteps) delete(ctx context.Context, path string) error {
	return s.tc.DELETE(path)
}

func (s *commonSteps) postWith(ctx context.Context, path string, body *godog.DocString) error {
	raw, err := s.docJSON(body)
	if err != nil {
		return err
	}
	return s.tc.POST(path, raw)
}

func (s *commonSteps) putWith(ctx context.Context, path string, body *godog.DocString) error {
	raw, err := s.docJSON(body)
	if err != nil {
		return err
	}
	return s.tc.PUT(path, raw)
}

func (s *commonSteps) docJSON(body *godog.DocString) (json.RawMessage, error) {
	raw := json.RawMessage(s.tc.Expand(body.Content))
	if !json.Valid(raw) {
		return nil, fmt.Errorf("step body is not valid JSON: %s", raw)
	}
	return raw, nil
}

func (s *commonSteps) statusShouldBe(ctx context.Context, expected int) error {
	if got := s.tc.GetLastStatusCode(); got != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, got, s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *commonSteps) errorCodeShouldBe(ctx context.Context, code string) error {
	return s.fieldShouldEqual(ctx, "error", code)
}

func (s *commonSteps) fieldShouldEqual(ctx context.Context, field, expected string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	expected = s.tc.Expand(expected)
	if got := fmt.Sprint(v); got != expected {
		return fmt.Errorf("expected %s=%q, got %q", field, expected, got)
	}
	return nil
}

func (s *commonSteps) fieldShouldBeBool(ctx context.Context, field, expected string) error {
	want, err := strconv.ParseBool(expected)
	if err != nil {
		return err
	}
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	got, ok := v.(bool)
	if !ok || got != want {
		return fmt.Errorf("expected %s=%t, got %v", field, want, v)
	}
	return nil
}

func (s *commonSteps) rememberField(ctx context.Context, field, name string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	s.tc.Remember(name, fmt.Sprint(v))
	return nil
}
