package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/hubsession/internal/engine"
	"github.com/roach88/hubsession/internal/journal"
	"github.com/roach88/hubsession/internal/logging"
	"github.com/roach88/hubsession/internal/message"
	"github.com/roach88/hubsession/internal/metrics"
	"github.com/roach88/hubsession/internal/transport"
)

// SendOptions holds flags for the send command.
type SendOptions struct {
	*RootOptions
	Output      string
	ContentType string
	Ticks       int
	Metrics     bool

	// IDs stamps each message. If nil, defaults to UUIDv7Generator.
	IDs message.IDGenerator
}

// SendResult holds the confirmation of each message.
type SendResult struct {
	DeviceID      string            `json:"device_id"`
	Confirmations []Confirmation    `json:"confirmations"`
	Counters      map[string]string `json:"counters,omitempty"`
}

// Confirmation is one message's terminal outcome.
type Confirmation struct {
	MessageID string `json:"message_id"`
	Size      int    `json:"size"`
	Result    string `json:"result"`
}

// NewSendCommand creates the send command.
func NewSendCommand(rootOpts *RootOptions) *cobra.Command {
	return newSendCommand(&SendOptions{RootOptions: rootOpts})
}

func newSendCommand(opts *SendOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <body>...",
		Short: "Send telemetry through a loopback session",
		Long: `Open a session with the resolved settings over the loopback transport,
send each argument as a telemetry message, run the work loop, and report
how every message was confirmed.

The loopback transport delivers nothing off-host. Use it to check settings
and to fill the outcome journal.

Examples:
  hubsession send -c device.yaml '{"temp":21.5}' '{"temp":21.7}'
  hubsession send -c device.yaml --output alerts --metrics 'overheat'
  hubsession send -c device.yaml --journal ./outcomes.db --ticks 0 'never sent'`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(opts, args, cmd)
		},
	}

	addSessionFlags(cmd.Flags())
	cmd.Flags().StringVar(&opts.Output, "output", "", "module output name")
	cmd.Flags().StringVar(&opts.ContentType, "content-type", "application/json", "message content type")
	cmd.Flags().IntVar(&opts.Ticks, "ticks", 1, "work loop iterations before the session is closed")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "report outcome counters")

	return cmd
}

func runSend(opts *SendOptions, bodies []string, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	settings, err := loadSettings(opts.RootOptions, cmd)
	if err != nil {
		return out.Fail(ExitCommandError, "E_CONFIG", "failed to load settings", err)
	}

	log, err := logging.NewWithWriter(sessionLogging(opts.RootOptions, settings), cmd.ErrOrStderr())
	if err != nil {
		return out.Fail(ExitCommandError, "E_CONFIG", "invalid log level", err)
	}

	reg := prometheus.NewRegistry()
	collector, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	engineOpts := []engine.Option{
		engine.WithLogger(logging.Component(log, "engine")),
		engine.WithMetrics(collector),
		engine.WithClock(opts.now()),
	}
	if settings.Journal != "" {
		j, err := journal.Open(settings.Journal, journal.WithLogger(logging.Component(log, "journal")))
		if err != nil {
			return out.Fail(ExitCommandError, "E_JOURNAL", "failed to open journal", err)
		}
		defer j.Close()
		engineOpts = append(engineOpts, engine.WithJournal(j))
	}

	e, err := settings.NewEngine(transport.LoopbackProvider(nil), engineOpts...)
	if err != nil {
		return out.Fail(ExitFailure, "E_SESSION", "failed to open session", err)
	}

	ids := opts.IDs
	if ids == nil {
		ids = message.UUIDv7Generator{}
	}

	result := SendResult{DeviceID: e.DeviceID(), Confirmations: make([]Confirmation, len(bodies))}
	for i, body := range bodies {
		msg := message.NewString(body)
		msg.ContentType = opts.ContentType
		msg.MessageID = ids.Generate()
		result.Confirmations[i] = Confirmation{MessageID: msg.MessageID, Size: len(body), Result: "PENDING"}

		confirm := func(r transport.ConfirmationResult) {
			result.Confirmations[i].Result = r.String()
		}
		if opts.Output != "" {
			err = e.SendEventToOutput(msg, opts.Output, confirm)
		} else {
			err = e.SendEvent(msg, confirm)
		}
		if err != nil {
			e.Destroy()
			return out.Fail(ExitFailure, "E_SEND", fmt.Sprintf("message %d rejected", i+1), err)
		}
		out.VerboseLog("queued %s (%s)", msg.MessageID, humanize.Bytes(uint64(len(body))))
	}

	for range opts.Ticks {
		e.DoWork()
	}
	e.Destroy()

	if opts.Metrics {
		result.Counters, err = counters(reg)
		if err != nil {
			return fmt.Errorf("failed to gather metrics: %w", err)
		}
	}

	failed := 0
	for _, c := range result.Confirmations {
		if c.Result != transport.ConfirmationOK.String() {
			failed++
		}
	}

	if err := out.Emit(result, func(w io.Writer) {
		for _, c := range result.Confirmations {
			fmt.Fprintf(w, "%-36s %8s  %s\n", c.MessageID, humanize.Bytes(uint64(c.Size)), c.Result)
		}
		for _, name := range sortedKeys(result.Counters) {
			fmt.Fprintf(w, "%s %s\n", name, result.Counters[name])
		}
	}); err != nil {
		return err
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d message(s) not confirmed", failed, len(bodies)))
	}
	return nil
}

// counters flattens the non-zero series in reg to "name{k=v,...}" keys.
func counters(reg *prometheus.Registry) (map[string]string, error) {
	families, err := reg.Gather()
	if err != nil {
		return nil, err
	}

	series := make(map[string]string)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			value := m.GetCounter().GetValue()
			if m.GetGauge() != nil {
				value = m.GetGauge().GetValue()
			}
			if value == 0 {
				continue
			}
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			series[mf.GetName()+"{"+strings.Join(labels, ",")+"}"] = humanize.Ftoa(value)
		}
	}
	return series, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
