package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/davefn/mailburst/internal/campaign"
	"github.com/davefn/mailburst/internal/google"
	"github.com/davefn/mailburst/internal/logging"
)

// maxUploadSize bounds multipart form parsing (32 MB, Gmail's attachment
// ceiling is lower anyway).
const maxUploadSize = 32 << 20

// handleIndex serves the campaign form when a usable credential exists,
// otherwise starts the authorization path.
func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	tok, ok := a.store.Load()
	authorized := ok && google.Usable(tok)

	if !authorized && a.hasClientSecret() {
		http.Redirect(w, r, "/authorize", http.StatusFound)
		return
	}

	a.renderIndex(w, indexData{
		Authorized: authorized,
		Flash:      r.URL.Query().Get("flash"),
	})
}

// handleAuthorize redirects to the Google consent screen. Without an
// uploaded client secret there is nothing to redirect to, so the setup
// page is shown instead of bouncing forever.
func (a *App) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	conf, err := a.oauthConfig()
	if err != nil {
		a.renderIndex(w, indexData{
			Flash: "Upload your OAuth client secret file to get started.",
		})
		return
	}

	http.Redirect(w, r, google.AuthCodeURL(conf), http.StatusFound)
}

// handleOAuthCallback exchanges the authorization code and persists the
// credential record.
func (a *App) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	if !google.VerifyState(r.URL.Query().Get("state")) {
		a.flashRedirect(w, r, "Authorization response could not be verified.")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		a.flashRedirect(w, r, "Authorization was denied or cancelled.")
		return
	}

	conf, err := a.oauthConfig()
	if err != nil {
		http.Redirect(w, r, "/authorize", http.StatusFound)
		return
	}

	tok, err := google.Exchange(r.Context(), conf, code)
	if err != nil {
		a.logger.Warn("auth code exchange failed", logging.Err(err))
		a.flashRedirect(w, r, "Authorization failed, please try again.")
		return
	}

	if err := a.store.Save(tok); err != nil {
		a.logger.Error("failed to persist credentials", logging.Err(err))
		http.Error(w, "failed to persist credentials", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// handleUploadCredentials accepts the OAuth client-secret file and an
// optional pre-existing token file, storing them at the configured paths.
func (a *App) handleUploadCredentials(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		a.flashRedirect(w, r, "Invalid upload.")
		return
	}

	_, header, err := r.FormFile("credentials")
	if err != nil {
		a.flashRedirect(w, r, "Select an OAuth client secret file.")
		return
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".json") {
		a.flashRedirect(w, r, "Client secret must be a .json file.")
		return
	}
	if err := saveUpload(header, a.cfg.ClientSecretPath); err != nil {
		a.logger.Error("failed to store client secret", logging.Err(err))
		a.flashRedirect(w, r, "Failed to store client secret.")
		return
	}

	// Optional token file from a previous authorization
	if _, tokenHeader, err := r.FormFile("token"); err == nil {
		if strings.EqualFold(filepath.Ext(tokenHeader.Filename), ".json") {
			if err := saveUpload(tokenHeader, a.cfg.TokenPath); err != nil {
				a.logger.Warn("failed to store token file", logging.Err(err))
			}
		}
	}

	a.flashRedirect(w, r, "Credentials uploaded.")
}

// handleSend performs a synchronous single-email send.
func (a *App) handleSend(w http.ResponseWriter, r *http.Request) {
	sender, err := a.newSender(r.Context())
	if err != nil {
		if errors.Is(err, google.ErrNoCredentials) {
			http.Redirect(w, r, "/authorize", http.StatusFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	to := strings.TrimSpace(r.FormValue("to"))
	subject := r.FormValue("subject")
	message := r.FormValue("message")
	if to == "" {
		a.flashRedirect(w, r, "Recipient is required.")
		return
	}

	id, err := sender.SendMail(to, subject, message, false, "")
	if err != nil {
		a.logger.Warn("single send failed", logging.Recipient(to), logging.Err(err))
		http.Error(w, fmt.Sprintf("send failed: %v", err), http.StatusBadGateway)
		return
	}

	fmt.Fprintf(w, "Message sent (ID: %s)", id)
}

// handleSendBulk starts a background campaign and acknowledges immediately
// with the recipient count.
func (a *App) handleSendBulk(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		a.flashRedirect(w, r, "Invalid upload.")
		return
	}

	// The campaign outlives this request, and the oauth2 refresh transport
	// keeps the context it was built with. A request-scoped context would be
	// canceled the moment the handler returns, killing token refresh for the
	// rest of the run.
	sender, err := a.newSender(context.WithoutCancel(r.Context()))
	if err != nil {
		if errors.Is(err, google.ErrNoCredentials) {
			http.Redirect(w, r, "/authorize", http.StatusFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	recipientList := a.extractRecipients(r)
	if len(recipientList) == 0 {
		a.flashRedirect(w, r, "No recipients found.")
		return
	}

	subjects := splitLines(r.FormValue("subjects"))
	bodies := splitBodies(r.FormValue("bodies"))
	if len(subjects) == 0 || len(bodies) == 0 {
		a.flashRedirect(w, r, "At least one subject and one body are required.")
		return
	}

	pause, _ := strconv.Atoi(r.FormValue("pause"))
	if pause < 0 {
		pause = 0
	}

	req := campaign.Request{
		Recipients:       recipientList,
		Subjects:         subjects,
		Bodies:           bodies,
		TFNs:             splitLines(r.FormValue("tfn")),
		Pause:            time.Duration(pause) * time.Second,
		HTML:             r.FormValue("html") != "",
		AttachPDF:        r.FormValue("pdf") != "",
		AttachDOCX:       r.FormValue("docx") != "",
		StaticAttachment: a.saveStaticAttachment(r),
	}

	runner := campaign.NewRunner(sender, a.generator, a.logger,
		campaign.WithMetrics(a.metrics),
		campaign.WithSelectorFactory(a.selector))
	job := runner.Start(req)
	a.setLastJob(job)

	fmt.Fprintf(w, "Sending %d emails in background! You can close this page.", len(recipientList))
}

// extractRecipients merges manual text with an uploaded table. The upload
// is persisted under a collision-resistant name before parsing.
func (a *App) extractRecipients(r *http.Request) []string {
	manual := r.FormValue("recipients")

	file, header, err := r.FormFile("file")
	if err != nil {
		return a.extractor.Extract(manual, "", nil)
	}
	defer file.Close()

	saved, err := a.persistUpload(header)
	if err != nil {
		a.logger.Warn("failed to persist recipient file", logging.Err(err))
		return a.extractor.Extract(manual, "", nil)
	}

	f, err := os.Open(saved)
	if err != nil {
		return a.extractor.Extract(manual, "", nil)
	}
	defer f.Close()

	return a.extractor.Extract(manual, header.Filename, f)
}

// saveStaticAttachment stores the optional shared attachment and returns
// its path, or "" when none was uploaded.
func (a *App) saveStaticAttachment(r *http.Request) string {
	_, header, err := r.FormFile("attachment")
	if err != nil || header.Filename == "" {
		return ""
	}

	saved, err := a.persistUpload(header)
	if err != nil {
		a.logger.Warn("failed to persist attachment", logging.Err(err))
		return ""
	}
	return saved
}

// persistUpload writes an uploaded file into the uploads directory under a
// unique name that keeps the original base name and extension.
func (a *App) persistUpload(header *multipart.FileHeader) (string, error) {
	name := uuid.NewString()[:8] + "-" + sanitizeFilename(header.Filename)
	dst := filepath.Join(a.cfg.UploadsDir, name)
	if err := saveUpload(header, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// hasClientSecret reports whether a client secret file has been uploaded.
func (a *App) hasClientSecret() bool {
	info, err := os.Stat(a.cfg.ClientSecretPath)
	return err == nil && !info.IsDir()
}

// flashRedirect sends the user back to the form with a message.
func (a *App) flashRedirect(w http.ResponseWriter, r *http.Request, msg string) {
	http.Redirect(w, r, "/?flash="+url.QueryEscape(msg), http.StatusFound)
}

// saveUpload copies a multipart file to dst, creating parent directories.
func saveUpload(header *multipart.FileHeader, dst string) error {
	src, err := header.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return nil
}

// sanitizeFilename strips path components from a client-supplied filename.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "_")
	if name == "." || name == string(filepath.Separator) {
		return "upload"
	}
	return name
}

// splitLines returns the non-blank trimmed lines of a form field.
func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// splitBodies splits the body pool on the literal === separator.
func splitBodies(s string) []string {
	var out []string
	for _, body := range strings.Split(s, "===") {
		body = strings.TrimSpace(body)
		if body == "" {
			continue
		}
		out = append(out, body)
	}
	return out
}
