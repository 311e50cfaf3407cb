package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/teemow/mailgate/internal/alert"
	"github.com/teemow/mailgate/internal/approval"
	"github.com/teemow/mailgate/internal/config"
	"github.com/teemow/mailgate/internal/gmail"
	"github.com/teemow/mailgate/internal/google"
	"github.com/teemow/mailgate/internal/history"
	"github.com/teemow/mailgate/internal/instrumentation"
	"github.com/teemow/mailgate/internal/logging"
	"github.com/teemow/mailgate/internal/output"
	"github.com/teemow/mailgate/internal/pending"
	"github.com/teemow/mailgate/internal/policy"
	"github.com/teemow/mailgate/internal/provider"
	"github.com/teemow/mailgate/internal/provider/ses"
	"github.com/teemow/mailgate/internal/provider/stdout"
	"github.com/teemow/mailgate/internal/sanitize"
	"github.com/teemow/mailgate/internal/server"
	"github.com/teemow/mailgate/internal/signal"
)

// runtime holds what a command needs after flags and config are resolved.
type runtime struct {
	cfg     *config.Config
	logger  *slog.Logger
	printer *output.Printer

	closers []func() error
}

// loadRuntime resolves config, logger and printer for cmd.
func loadRuntime(cmd *cobra.Command, opts *globalOptions) (*runtime, error) {
	format, err := output.ParseFormat(opts.format)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Resolve(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := config.ParseLevel(cfg.Logging.Level)
	if opts.debug {
		level = slog.LevelDebug
	}

	return &runtime{
		cfg:     cfg,
		logger:  logging.New(cmd.ErrOrStderr(), level, cfg.Logging.Format),
		printer: output.New(cmd.OutOrStdout(), format),
	}, nil
}

// Close releases everything opened through the runtime.
func (r *runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	r.closers = nil
	return errors.Join(errs...)
}

func (r *runtime) store() *pending.Store {
	return pending.NewStore(r.cfg.Paths.Pending, r.logger)
}

func (r *runtime) policy() *policy.Evaluator {
	return policy.NewEvaluator(policy.NewFileSource(r.cfg.Paths.Security), r.logger)
}

// history opens the decision log, or a no-op recorder when none is set.
func (r *runtime) history() (history.Recorder, error) {
	if r.cfg.Paths.History == "" {
		return history.Nop{}, nil
	}
	return r.historyStore()
}

func (r *runtime) historyStore() (*history.SQLiteStore, error) {
	if r.cfg.Paths.History == "" {
		return nil, errors.New("decision history is disabled; set paths.history or MAILGATE_HISTORY_PATH")
	}
	store, err := history.NewSQLiteStore(r.cfg.Paths.History)
	if err != nil {
		return nil, err
	}
	r.closers = append(r.closers, store.Close)
	return store, nil
}

// sender builds the configured provider. The stdout provider writes to w.
func (r *runtime) sender(ctx context.Context, w io.Writer) (provider.Sender, error) {
	switch r.cfg.Provider.Name {
	case config.ProviderGmail:
		return gmail.NewSender(google.NewTokenStore(), r.cfg.Provider.Gmail.Account, r.logger), nil
	case config.ProviderSES:
		p, err := ses.New(ctx, ses.Config{
			Region:          r.cfg.Provider.SES.Region,
			AccessKeyID:     r.cfg.Provider.SES.AccessKeyID,
			SecretAccessKey: r.cfg.Provider.SES.SecretAccessKey,
			Sender:          r.cfg.Provider.SES.Sender,
		}, logging.WithProvider(r.logger, config.ProviderSES))
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return stdout.NewWithWriter(w), nil
	}
}

// dispatcher registers every configured alert channel. The log channel is
// always available.
func (r *runtime) dispatcher(metrics *instrumentation.Metrics) (*alert.Dispatcher, error) {
	d := alert.NewDispatcher(r.logger, metrics)
	d.SetTimeout(r.cfg.Alert.Timeout)
	d.Register("log", alert.NewLogNotifier(r.logger))

	if account := r.cfg.Alert.SignalAccount; account != "" {
		client, err := signal.NewClient(account)
		if err != nil {
			r.logger.Warn("signal channel disabled", "error", err)
		} else {
			d.Register("signal", alert.NewSignalNotifier(client))
		}
	}

	if len(r.cfg.Alert.Command) > 0 {
		n, err := alert.NewCommandNotifier(r.cfg.Alert.CommandChannel, r.cfg.Alert.Command)
		if err != nil {
			return nil, fmt.Errorf("invalid alert command: %w", err)
		}
		d.Register(r.cfg.Alert.CommandChannel, n)
	}

	return d, nil
}

// services wires the gate, workflow and screen over shared dependencies.
// Mail printed by the stdout provider goes to mailOut.
func (r *runtime) services(ctx context.Context, mailOut io.Writer, metrics *instrumentation.Metrics) (server.Services, error) {
	sender, err := r.sender(ctx, mailOut)
	if err != nil {
		return server.Services{}, err
	}
	rec, err := r.history()
	if err != nil {
		return server.Services{}, err
	}
	alerts, err := r.dispatcher(metrics)
	if err != nil {
		return server.Services{}, err
	}

	deps := approval.Deps{
		Store:     r.store(),
		Sender:    sender,
		Policy:    r.policy(),
		Alerts:    alerts,
		History:   rec,
		Metrics:   metrics,
		Logger:    r.logger,
		Sanitizer: sanitize.Sanitizer{MaxBytes: r.cfg.Sanitizer.MaxBytes},
		Location:  alert.LoadLocation(r.cfg.Alert.Timezone),
	}

	gate, err := approval.NewGate(deps)
	if err != nil {
		return server.Services{}, err
	}
	workflow, err := approval.NewWorkflow(deps)
	if err != nil {
		return server.Services{}, err
	}
	screen, err := approval.NewScreen(deps)
	if err != nil {
		return server.Services{}, err
	}

	return server.Services{Gate: gate, Workflow: workflow, Screen: screen}, nil
}

// unavailableSender fails every send. It backs the review commands, which
// never send.
type unavailableSender struct{}

func (unavailableSender) Send(context.Context, string, provider.Message) (string, error) {
	return "", errors.New("sending is not available for this command")
}

func (unavailableSender) Name() string { return "none" }

// reviewWorkflow builds a Workflow for list and reject. The provider and
// alert channels are not set up, and a history that cannot be opened is
// logged and skipped.
func (r *runtime) reviewWorkflow() (*approval.Workflow, error) {
	rec, err := r.history()
	if err != nil {
		r.logger.Warn("decision history unavailable", logging.Operation("review"), logging.Err(err))
		rec = history.Nop{}
	}
	return approval.NewWorkflow(approval.Deps{
		Store:   r.store(),
		Sender:  unavailableSender{},
		Policy:  r.policy(),
		History: rec,
		Logger:  r.logger,
	})
}

// withRuntime loads the runtime, runs fn and closes it.
func withRuntime(cmd *cobra.Command, opts *globalOptions, fn func(*runtime) error) error {
	rt, err := loadRuntime(cmd, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(); cerr != nil {
			rt.logger.Warn("failed to close resources", "error", cerr)
		}
	}()
	return fn(rt)
}
