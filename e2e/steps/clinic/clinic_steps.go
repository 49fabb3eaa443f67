package clinic

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the scenario context clinic steps need.
type TestContext interface {
	GET(path string) error
	POST(path string, body any) error
	GetLastStatusCode() int
	GetLastResponseBody() []byte
	GetResponseField(field string) (any, error)
	Remember(name, value string)
	Recall(name string) (string, bool)
}

// RegisterSteps registers patient, appointment and dashboard steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &clinicSteps{tc: tc}

	ctx.Step(`^a patient "([^"]*)" is registered as "([^"]*)"$`, steps.registerPatient)
	ctx.Step(`^an appointment for "([^"]*)" on "([^"]*)" at "([^"]*)" with "([^"]*)" is booked as "([^"]*)"$`, steps.bookAppointment)
	ctx.Step(`^the appointment list should include "([^"]*)"$`, steps.appointmentListShouldInclude)
	ctx.Step(`^the appointment list should not include "([^"]*)"$`, steps.appointmentListShouldNotInclude)
	ctx.Step(`^the dashboard should count at least (\d+) patients?$`, steps.dashboardShouldCountPatients)
}

type clinicSteps struct {
	tc TestContext
}

// registerPatient uses a freshly generated CPF so reruns against a
// persistent database do not conflict.
func (s *clinicSteps) registerPatient(ctx context.Context, name, alias string) error {
	if err := s.tc.GET("/api/cpf/generate"); err != nil {
		return err
	}
	cpf, err := s.tc.GetResponseField("cpf")
	if err != nil {
		return err
	}

	body := map[string]string{"name": name, "cpf": fmt.Sprint(cpf)}
	if err := s.tc.POST("/api/patients", body); err != nil {
		return err
	}
	if err := s.expectStatus(201); err != nil {
		return err
	}
	patientID, err := s.tc.GetResponseField("id")
	if err != nil {
		return err
	}
	s.tc.Remember(alias, fmt.Sprint(patientID))
	s.tc.Remember(alias+"_cpf", fmt.Sprint(cpf))
	return nil
}

func (s *clinicSteps) bookAppointment(ctx context.Context, patientAlias, date, at, doctor, alias string) error {
	patientID, ok := s.tc.Recall(patientAlias)
	if !ok {
		return fmt.Errorf("unknown patient %q", patientAlias)
	}
	body := map[string]string{
		"patient_id": patientID,
		"date":       date,
		"time":       at,
		"doctor":     doctor,
	}
	if err := s.tc.POST("/api/appointments", body); err != nil {
		return err
	}
	if err := s.expectStatus(201); err != nil {
		return err
	}
	appointmentID, err := s.tc.GetResponseField("id")
	if err != nil {
		return err
	}
	s.tc.Remember(alias, fmt.Sprint(appointmentID))
	return nil
}

func (s *clinicSteps) appointmentListShouldInclude(ctx context.Context, alias string) error {
	found, err := s.appointmentListed(alias)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("appointment %q missing from list", alias)
	}
	return nil
}

func (s *clinicSteps) appointmentListShouldNotInclude(ctx context.Context, alias string) error {
	found, err := s.appointmentListed(alias)
	if err != nil {
		return err
	}
	if found {
		return fmt.Errorf("appointment %q still listed", alias)
	}
	return nil
}

func (s *clinicSteps) appointmentListed(alias string) (bool, error) {
	appointmentID, ok := s.tc.Recall(alias)
	if !ok {
		return false, fmt.Errorf("unknown appointment %q", alias)
	}
	if err := s.tc.GET("/api/appointments"); err != nil {
		return false, err
	}
	if err := s.expectStatus(200); err != nil {
		return false, err
	}

	var list struct {
		Appointments []struct {
			ID string `json:"id"`
		} `json:"appointments"`
	}
	if err := json.Unmarshal(s.tc.GetLastResponseBody(), &list); err != nil {
		return false, fmt.Errorf("decode appointment list: %w", err)
	}
	for _, a := range list.Appointments {
		if a.ID == appointmentID {
			return true, nil
		}
	}
	return false, nil
}

func (s *clinicSteps) dashboardShouldCountPatients(ctx context.Context, minimum int) error {
	if err := s.tc.GET("/api/dashboard"); err != nil {
		return err
	}
	if err := s.expectStatus(200); err != nil {
		return err
	}
	v, err := s.tc.GetResponseField("total_patients")
	if err != nil {
		return err
	}
	total, err := strconv.Atoi(fmt.Sprint(v))
	if err != nil {
		return fmt.Errorf("total_patients is not a number: %v", v)
	}
	if total < minimum {
		return fmt.Errorf("expected at least %d patients, dashboard reports %d", minimum, total)
	}
	return nil
}

func (s *clinicSteps) expectStatus(expected int) error {
	if got := s.tc.GetLastStatusCode(); got != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, got, s.tc.GetLastResponseBody())
	}
	return nil
}
