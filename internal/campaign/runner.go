package campaign

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/davefn/mailburst/internal/logging"
)

// State tracks where a campaign is in its lifecycle. There is no paused or
// cancelled state: once started, a campaign runs to the end of its
// recipient list.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	default:
		return "idle"
	}
}

// Request describes one campaign. It is immutable for the lifetime of a
// run; the recipient list is fixed once extraction completes.
type Request struct {
	Recipients []string

	// Subjects and Bodies are the variant pools; one of each is drawn per
	// recipient, independently, by the configured selection strategy.
	Subjects []string
	Bodies   []string

	// TFNs is the optional toll-free-number pool for the #TFN# placeholder.
	TFNs []string

	// Pause is the pacing interval between sends.
	Pause time.Duration

	HTML       bool
	AttachPDF  bool
	AttachDOCX bool

	// StaticAttachment is a shared file attached to every send unless a
	// PDF/DOCX is generated for the attempt. It is never deleted by the
	// runner.
	StaticAttachment string
}

// Attempt is the structured outcome of one recipient's send.
type Attempt struct {
	Index     int
	Recipient string
	Subject   string
	MessageID string
	Err       error
}

// Succeeded reports whether the provider accepted the message.
func (a Attempt) Succeeded() bool {
	return a.Err == nil
}

// Report aggregates the outcome of a completed campaign.
type Report struct {
	Total    int
	Sent     int
	Failed   int
	Attempts []Attempt
}

// Job is a handle on a running campaign. The triggering caller returns
// immediately; anyone interested can wait on Done and read the report.
type Job struct {
	total  int
	state  atomic.Int32
	done   chan struct{}
	report Report
}

// Total returns the fixed recipient count of the campaign.
func (j *Job) Total() int {
	return j.total
}

// State returns the current lifecycle state.
func (j *Job) State() State {
	return State(j.state.Load())
}

// Done is closed when the campaign has processed its last recipient.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the campaign completes and returns its report.
func (j *Job) Wait() Report {
	<-j.done
	return j.report
}

// Sender dispatches one composed message and returns the provider-assigned
// message id.
type Sender interface {
	SendMail(to, subject, body string, html bool, attachmentPath string) (string, error)
}

// Renderer produces ephemeral attachment files.
type Renderer interface {
	RenderPDF(htmlBody string) (string, error)
	ConvertToDOCX(pdfPath string) (string, error)
}

// Metrics receives campaign lifecycle and per-attempt signals.
type Metrics interface {
	CampaignStarted(recipients int)
	CampaignCompleted()
	MessageSent()
	MessageFailed()
}

type nopMetrics struct{}

func (nopMetrics) CampaignStarted(int) {}
func (nopMetrics) CampaignCompleted()  {}
func (nopMetrics) MessageSent()        {}
func (nopMetrics) MessageFailed()      {}

// attachmentNotices replace the body text once it has moved into a
// generated attachment.
var attachmentNotices = []string{
	"Please see the attached invoice for details.",
	"Your invoice is attached to this message.",
	"Attached you will find your invoice.",
	"Kindly review the attached document.",
}

// Option configures a Runner.
type Option func(*Runner)

// WithMetrics wires a metrics sink.
func WithMetrics(m Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithSelectorFactory overrides the variant selection strategy.
func WithSelectorFactory(f SelectorFactory) Option {
	return func(r *Runner) { r.newSelector = f }
}

// Runner executes campaigns on a detached background goroutine, one
// recipient at a time, in extraction order.
type Runner struct {
	sender      Sender
	renderer    Renderer
	logger      *slog.Logger
	metrics     Metrics
	newSelector SelectorFactory
}

// NewRunner creates a Runner.
func NewRunner(sender Sender, renderer Renderer, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		sender:      sender,
		renderer:    renderer,
		logger:      logging.WithComponent(logger, "campaign"),
		metrics:     nopMetrics{},
		newSelector: func() Selector { return randomSelector{} },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start launches the campaign and returns immediately with its Job handle.
func (r *Runner) Start(req Request) *Job {
	job := &Job{
		total: len(req.Recipients),
		done:  make(chan struct{}),
	}
	job.state.Store(int32(StateRunning))
	r.metrics.CampaignStarted(job.total)
	r.logger.Info("campaign started",
		"recipients", job.total,
		"pause", req.Pause.String(),
		"html", req.HTML,
		"pdf", req.AttachPDF,
		"docx", req.AttachDOCX)

	go r.run(job, req)
	return job
}

func (r *Runner) run(job *Job, req Request) {
	defer func() {
		job.state.Store(int32(StateCompleted))
		r.metrics.CampaignCompleted()
		r.logger.Info("campaign completed",
			"recipients", job.report.Total,
			"sent", job.report.Sent,
			"failed", job.report.Failed)
		close(job.done)
	}()

	subjects := r.newSelector()
	bodies := r.newSelector()
	tfns := r.newSelector()
	notices := r.newSelector()

	total := len(req.Recipients)
	job.report.Total = total

	for i, recipient := range req.Recipients {
		attempt := r.sendOne(i+1, total, recipient, &req, subjects, bodies, tfns, notices)
		if attempt.Succeeded() {
			job.report.Sent++
			r.metrics.MessageSent()
			r.logger.Info("sent",
				"index", fmt.Sprintf("%d/%d", attempt.Index, total),
				logging.Recipient(recipient),
				logging.Domain(recipient),
				logging.MessageID(attempt.MessageID))
		} else {
			job.report.Failed++
			r.metrics.MessageFailed()
			r.logger.Warn("failed",
				"index", fmt.Sprintf("%d/%d", attempt.Index, total),
				logging.Recipient(recipient),
				logging.Domain(recipient),
				logging.Err(attempt.Err))
		}
		job.report.Attempts = append(job.report.Attempts, attempt)

		if req.Pause > 0 {
			time.Sleep(req.Pause)
		}
	}
}

// sendOne performs steps 1-8 of a Send Attempt: draw variants,
// personalize, resolve the attachment, dispatch and clean up.
func (r *Runner) sendOne(idx, total int, recipient string, req *Request, subjects, bodies, tfns, notices Selector) (attempt Attempt) {
	attempt = Attempt{Index: idx, Recipient: recipient}

	subject := subjects.Pick(req.Subjects)
	body := strings.TrimSpace(bodies.Pick(req.Bodies))
	tfn := tfns.Pick(req.TFNs)
	body = Personalize(body, recipient, tfn)
	attempt.Subject = subject

	attachment := req.StaticAttachment
	generated := ""
	defer func() {
		// Generated artifacts never outlive their attempt. The shared
		// static attachment is retained.
		if generated == "" {
			return
		}
		if err := os.Remove(generated); err != nil {
			r.logger.Warn("failed to remove generated attachment",
				"path", generated, logging.Err(err))
		}
	}()

	switch {
	case req.AttachDOCX:
		docxPath, err := r.renderDOCX(body)
		if err != nil {
			attempt.Err = err
			return attempt
		}
		attachment, generated = docxPath, docxPath
		body = notices.Pick(attachmentNotices)
	case req.AttachPDF:
		pdfPath, err := r.renderer.RenderPDF(body)
		if err != nil {
			attempt.Err = fmt.Errorf("failed to render pdf: %w", err)
			return attempt
		}
		attachment, generated = pdfPath, pdfPath
		body = notices.Pick(attachmentNotices)
	}

	id, err := r.sender.SendMail(recipient, subject, body, req.HTML, attachment)
	if err != nil {
		attempt.Err = err
		return attempt
	}

	attempt.MessageID = id
	return attempt
}

// renderDOCX renders the body to a PDF, converts it to DOCX and removes the
// intermediate PDF in all cases.
func (r *Runner) renderDOCX(body string) (string, error) {
	pdfPath, err := r.renderer.RenderPDF(body)
	if err != nil {
		return "", fmt.Errorf("failed to render pdf: %w", err)
	}

	docxPath, convErr := r.renderer.ConvertToDOCX(pdfPath)
	if err := os.Remove(pdfPath); err != nil {
		r.logger.Warn("failed to remove intermediate pdf", "path", pdfPath, logging.Err(err))
	}
	if convErr != nil {
		return "", fmt.Errorf("failed to convert to docx: %w", convErr)
	}
	return docxPath, nil
}
