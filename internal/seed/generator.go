// Package seed fills the clinic with realistic fake patients and appointments
// for demos and local development.
package seed

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	appointmentmodels "clinic/internal/appointment/models"
	patientmodels "clinic/internal/patient/models"
	"clinic/pkg/cpf"
	id "clinic/pkg/domain"
)

var specialties = []string{
	"Cardiologia", "Dermatologia", "Ortopedia", "Pediatria",
	"Ginecologia", "Oftalmologia", "Neurologia", "Psiquiatria",
	"Endocrinologia", "Urologia", "Otorrinolaringologia",
	"Gastroenterologia", "Pneumologia", "Reumatologia",
}

var areaCodes = []string{"11", "21", "31", "41", "51", "61", "71", "81", "91"}

var states = []string{"SP", "RJ", "MG", "PR", "RS", "DF", "BA", "PE", "PA", "SC", "GO", "CE"}

var complaints = []string{"dor", "febre", "tosse", "mal-estar"}

var quarterHours = []int{0, 15, 30, 45}

const (
	minAge = 18
	maxAge = 90

	pastDays   = 180
	futureDays = 90

	firstHour = 8
	lastHour  = 17

	completedRatio = 0.85
)

// Generator produces fake records. Every draw comes from one seeded source,
// so a seed and a reference time fix the output apart from record IDs.
type Generator struct {
	r     *rand.Rand
	faker *gofakeit.Faker
	cpfs  cpf.DigitSource
	now   time.Time
	today time.Time
	used  map[cpf.Identifier]struct{}
}

func NewGenerator(seed uint64, now time.Time) *Generator {
	src := rand.NewPCG(seed, seed)
	r := rand.New(src)
	now = now.UTC()
	return &Generator{
		r:     r,
		faker: gofakeit.NewFaker(src, false),
		cpfs:  cpf.RandSource(r),
		now:   now,
		today: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		used:  make(map[cpf.Identifier]struct{}),
	}
}

// Patient returns a patient with a CPF not yet issued by this generator.
func (g *Generator) Patient() (*patientmodels.Patient, error) {
	birthDate := g.birthDate()
	return patientmodels.NewPatient(id.NewPatientID(), patientmodels.Fields{
		Name:      g.faker.Name(),
		CPF:       g.uniqueCPF(),
		Phone:     g.phone(),
		Email:     g.faker.Email(),
		BirthDate: &birthDate,
		Address:   fmt.Sprintf("%s, %s/%s", g.faker.Street(), g.faker.City(), pick(g.r, states)),
	}, g.now)
}

// Appointment books a random patient from patients. Past appointments are
// completed or cancelled; today's and future ones are scheduled.
func (g *Generator) Appointment(patients []*patientmodels.Patient) (*appointmentmodels.Appointment, error) {
	if len(patients) == 0 {
		return nil, fmt.Errorf("appointments need at least one patient")
	}
	patient := pick(g.r, patients)
	specialty := pick(g.r, specialties)

	day := g.today.AddDate(0, 0, g.r.IntN(pastDays+futureDays+1)-pastDays)
	hour := firstHour + g.r.IntN(lastHour-firstHour+1)
	minute := pick(g.r, quarterHours)
	scheduledAt := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC)

	doctor := "Dr(a). " + g.faker.Name()

	status := appointmentmodels.StatusScheduled
	if day.Before(g.today) {
		status = appointmentmodels.StatusCompleted
		if g.r.Float64() >= completedRatio {
			status = appointmentmodels.StatusCancelled
		}
	}

	return appointmentmodels.NewAppointment(id.NewAppointmentID(), appointmentmodels.Fields{
		PatientID:   patient.ID,
		ScheduledAt: scheduledAt,
		Doctor:      doctor,
		Specialty:   specialty,
		Notes:       g.notes(),
		Status:      status,
	}, g.now)
}

func (g *Generator) uniqueCPF() cpf.Identifier {
	for {
		c := cpf.Generate(g.cpfs)
		if _, dup := g.used[c]; !dup {
			g.used[c] = struct{}{}
			return c
		}
	}
}

func (g *Generator) phone() string {
	return fmt.Sprintf("(%s) 9%04d-%04d", pick(g.r, areaCodes), 1000+g.r.IntN(9000), 1000+g.r.IntN(9000))
}

// birthDate falls between the oldest and youngest allowed ages, inclusive.
func (g *Generator) birthDate() time.Time {
	youngest := g.today.AddDate(-minAge, 0, 0)
	oldest := g.today.AddDate(-(maxAge + 1), 0, 1)
	span := int(youngest.Sub(oldest).Hours()/24) + 1
	return oldest.AddDate(0, 0, g.r.IntN(span))
}

func (g *Generator) notes() string {
	options := []string{
		"Consulta de rotina",
		"Retorno de exames",
		"Primeira consulta",
		"Acompanhamento",
		"Queixa: " + pick(g.r, complaints),
		"Check-up anual",
		"",
	}
	return pick(g.r, options)
}

func pick[T any](r *rand.Rand, items []T) T {
	return items[r.IntN(len(items))]
}
