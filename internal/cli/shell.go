// Package cli implements the line-oriented scheduler shell.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/vaccine-scheduler/internal/observability"
	"github.com/spec-kit/vaccine-scheduler/internal/service"
	"github.com/spec-kit/vaccine-scheduler/internal/session"
	apperrors "github.com/spec-kit/vaccine-scheduler/pkg/util/errorutil"
)

const banner = `
Welcome to the COVID-19 Vaccine Reservation Scheduling Application!
*** Please enter one of the following commands ***
> create_patient <username> <password>
> create_caregiver <username> <password>
> login_patient <username> <password>
> login_caregiver <username> <password>
> search_caregiver_schedule <date>
> reserve <date> <vaccine>
> upload_availability <date>
> cancel <appointment_id>
> add_doses <vaccine> <number>
> show_appointments
> logout
> quit
`

const prompt = "> "

// Dependencies wires the shell to its services and streams.
type Dependencies struct {
	In             io.Reader
	Out            io.Writer
	Auth           *service.AuthService
	Schedule       *service.ScheduleService
	Reservations   *service.ReservationService
	Metrics        *observability.Metrics
	Logger         *zap.Logger
	CommandTimeout time.Duration
}

type handler func(ctx context.Context, args []string) error

type command struct {
	run      handler
	messages map[string]string
}

// Shell reads one command per line and runs it to completion before reading
// the next. It owns the session for its lifetime.
type Shell struct {
	in           *bufio.Reader
	out          io.Writer
	session      *session.Session
	auth         *service.AuthService
	schedule     *service.ScheduleService
	reservations *service.ReservationService
	metrics      *observability.Metrics
	logger       *zap.Logger
	timeout      time.Duration
	commands     map[string]command
}

// NewShell builds a shell with an anonymous session.
func NewShell(deps Dependencies) *Shell {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Shell{
		in:           bufio.NewReader(deps.In),
		out:          deps.Out,
		session:      session.New(),
		auth:         deps.Auth,
		schedule:     deps.Schedule,
		reservations: deps.Reservations,
		metrics:      deps.Metrics,
		logger:       logger,
		timeout:      deps.CommandTimeout,
	}
	s.commands = map[string]command{
		"create_patient":            {run: s.createPatient, messages: createUserMessages},
		"create_caregiver":          {run: s.createCaregiver, messages: createUserMessages},
		"login_patient":             {run: s.loginPatient, messages: loginMessages},
		"login_caregiver":           {run: s.loginCaregiver, messages: loginMessages},
		"search_caregiver_schedule": {run: s.searchCaregiverSchedule},
		"reserve":                   {run: s.reserve},
		"upload_availability":       {run: s.uploadAvailability, messages: uploadMessages},
		"cancel":                    {run: s.cancel},
		"add_doses":                 {run: s.addDoses, messages: addDosesMessages},
		"show_appointments":         {run: s.showAppointments},
		"logout":                    {run: s.logout, messages: logoutMessages},
	}
	return s
}

// Session exposes the shell's session.
func (s *Shell) Session() *session.Session {
	return s.session
}

// Run prints the banner and processes commands until quit, end of input or
// ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	fmt.Fprint(s.out, banner)
	fmt.Fprintln(s.out)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(s.out, prompt)

		line, err := s.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read command: %w", err)
		}
		eof := errors.Is(err, io.EOF)
		if eof && line == "" {
			fmt.Fprintln(s.out)
			return nil
		}

		if quit := s.Execute(ctx, line); quit || eof {
			return nil
		}
	}
}

// Execute runs one input line and reports whether the shell should stop.
func (s *Shell) Execute(ctx context.Context, line string) bool {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		s.println(msgTryAgain)
		return false
	}

	name := tokens[0]
	if name == "quit" {
		s.println("Bye!")
		s.metrics.RecordCommand(name, "ok", 0)
		return true
	}

	cmd, ok := s.commands[name]
	if !ok {
		s.println("Invalid operation name!")
		s.metrics.RecordCommand("unknown", "invalid", 0)
		return false
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	err := cmd.run(ctx, tokens[1:])
	outcome := "ok"
	if err != nil {
		de := apperrors.ToDomainError(err)
		outcome = de.Code
		if de.Kind == apperrors.KindStore {
			s.logger.Error("command failed", zap.String("command", name), zap.Error(err))
		}
		s.println(messageFor(cmd.messages, err))
	}
	s.metrics.RecordCommand(name, outcome, time.Since(start))
	return false
}

func (s *Shell) println(a ...any) {
	fmt.Fprintln(s.out, a...)
}

func (s *Shell) printf(format string, a ...any) {
	fmt.Fprintf(s.out, format, a...)
}
