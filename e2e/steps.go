package e2e

import (
	"github.com/cucumber/godog"

	"clinic/e2e/steps/clinic"
	"clinic/e2e/steps/common"
	"clinic/e2e/steps/cpf"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	cpf.RegisterSteps(ctx, tc)
	clinic.RegisterSteps(ctx, tc)
}
