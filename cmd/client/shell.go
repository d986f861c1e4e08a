package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/atinyakov/rollcall/internal/client/prompt"
	"github.com/atinyakov/rollcall/internal/client/records"
	"github.com/atinyakov/rollcall/internal/client/session"
	"github.com/atinyakov/rollcall/internal/client/upload"
	"github.com/atinyakov/rollcall/internal/client/view"
)

const helpText = `Available commands:
  register               create an account
  login                  sign in
  logout                 sign out and discard the current photo
  status                 show session and upload state
  select <path>          choose a group photo
  submit                 upload the selected photo and take attendance
  result                 show the last attendance result
  reset                  discard the selection and result
  enroll <name> <path>   add a known face (name may contain spaces)
  known                  list enrolled faces
  history                list attendance marks, newest first
  dashboard              show attendance counts per student
  help                   show this help
  exit                   leave the shell`

// shell is the interactive front end. Every command runs to completion
// before the next line is read.
type shell struct {
	prompt   *prompt.Prompter
	out      io.Writer
	session  *session.Manager
	workflow *upload.Workflow
	records  *records.Client
	timeout  time.Duration
	service  string
}

// run restores any existing session, then reads commands until exit, end of
// input or ctx cancellation.
func (s *shell) run(ctx context.Context) {
	cctx, cancel := s.requestContext(ctx)
	state := s.session.CheckAuth(cctx)
	cancel()
	s.printf("Session: %s. Type 'help' for commands.\n", state)

	for ctx.Err() == nil {
		line, ok := s.prompt.Line("rollcall> ")
		if !ok {
			s.printf("\n")
			return
		}
		if s.exec(ctx, line) {
			return
		}
	}
}

// exec runs one command line and reports whether the shell should exit.
func (s *shell) exec(ctx context.Context, line string) (quit bool) {
	name, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch name {
	case "":
	case "help":
		s.printf("%s\n", helpText)
	case "exit", "quit":
		return true
	case "register":
		s.register(ctx)
	case "login":
		s.login(ctx)
	case "logout":
		cctx, cancel := s.requestContext(ctx)
		defer cancel()
		s.session.Logout(cctx)
		s.workflow.Reset()
		s.printf("Logged out.\n")
	case "status":
		s.printf("Service: %s\nSession: %s\nUpload: %s\n", s.service, s.session.State(), s.workflow.State())
		if img, ok := s.workflow.Selection(); ok {
			s.printf("Selected: %s (%s, %d bytes)\n", img.Filename, img.ContentType, len(img.Data))
		}
	case "select":
		s.selectImage(rest)
	case "submit":
		s.submit(ctx)
	case "result":
		res, ok := s.workflow.Result()
		if !ok {
			s.printf("No result yet.\n")
			return false
		}
		s.printf("%s\n", view.Render(view.Project(res)))
	case "reset":
		s.workflow.Reset()
		s.printf("Cleared.\n")
	case "enroll":
		s.enroll(ctx, rest)
	case "known":
		cctx, cancel := s.requestContext(ctx)
		defer cancel()
		names, err := s.records.KnownFaces(cctx)
		if err != nil {
			s.reportRecordsError(err)
			return false
		}
		s.printf("%s\n", view.RenderKnownFaces(names))
	case "history":
		cctx, cancel := s.requestContext(ctx)
		defer cancel()
		recs, err := s.records.History(cctx)
		if err != nil {
			s.reportRecordsError(err)
			return false
		}
		s.printf("%s\n", view.RenderHistory(recs))
	case "dashboard":
		cctx, cancel := s.requestContext(ctx)
		defer cancel()
		entries, err := s.records.Dashboard(cctx)
		if err != nil {
			s.reportRecordsError(err)
			return false
		}
		s.printf("%s\n", view.RenderDashboard(entries))
	default:
		s.printf("Unknown command %q. Type 'help' for commands.\n", name)
	}
	return false
}

func (s *shell) register(ctx context.Context) {
	creds, err := s.prompt.Credentials()
	if err != nil {
		s.printf("%v\n", err)
		return
	}
	cctx, cancel := s.requestContext(ctx)
	defer cancel()
	if err := s.session.Register(cctx, creds); err != nil {
		s.printf("Registration failed.\n")
		return
	}
	s.printf("Registered %s. You can log in now.\n", creds.Username)
}

func (s *shell) login(ctx context.Context) {
	creds, err := s.prompt.Credentials()
	if err != nil {
		s.printf("%v\n", err)
		return
	}
	cctx, cancel := s.requestContext(ctx)
	defer cancel()
	if err := s.session.Login(cctx, creds); err != nil {
		s.printf("Invalid credentials.\n")
		return
	}
	s.printf("Logged in as %s.\n", creds.Username)
}

func (s *shell) selectImage(path string) {
	if path == "" {
		s.printf("Usage: select <path>\n")
		return
	}
	img, err := upload.LoadImage(path)
	if err != nil {
		s.printf("Cannot use %s: %v\n", path, err)
		return
	}
	if err := s.workflow.SelectImage(img); err != nil {
		s.printf("Cannot select %s: %v\n", path, err)
		return
	}
	s.printf("Selected %s.\n", img.Filename)
}

func (s *shell) submit(ctx context.Context) {
	cctx, cancel := s.requestContext(ctx)
	defer cancel()

	res, err := s.workflow.Submit(cctx)
	switch {
	case errors.Is(err, upload.ErrNothingSelected):
		s.printf("Select a photo first.\n")
	case errors.Is(err, upload.ErrUnauthorized):
		s.printf("Please log in first.\n")
	case errors.Is(err, upload.ErrAlreadySubmitting):
		s.printf("An upload is already in progress.\n")
	case err != nil:
		s.printf("Upload failed. Select the photo again to retry.\n")
	default:
		s.printf("%s\n", view.Render(view.Project(res)))
	}
}

func (s *shell) enroll(ctx context.Context, args string) {
	// The path is the last word; everything before it is the name.
	i := strings.LastIndex(args, " ")
	if i < 0 {
		s.printf("Usage: enroll <name> <path>\n")
		return
	}
	name, path := strings.TrimSpace(args[:i]), args[i+1:]
	if name == "" || path == "" {
		s.printf("Usage: enroll <name> <path>\n")
		return
	}
	img, err := upload.LoadImage(path)
	if err != nil {
		s.printf("Cannot use %s: %v\n", path, err)
		return
	}
	cctx, cancel := s.requestContext(ctx)
	defer cancel()
	if err := s.records.AddKnownFace(cctx, name, img); err != nil {
		s.reportRecordsError(err)
		return
	}
	s.printf("Enrolled %s.\n", name)
}

func (s *shell) reportRecordsError(err error) {
	switch {
	case errors.Is(err, records.ErrUnauthorized):
		s.printf("Please log in first.\n")
	case errors.Is(err, upload.ErrNoImage):
		s.printf("The image is empty.\n")
	default:
		s.printf("Request failed.\n")
	}
}

func (s *shell) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}
