package receipt

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// maxPDFSize bounds the response read from the converter.
const maxPDFSize = 10 << 20

// Client converts receipts to PDF using a Gotenberg-compatible Chromium endpoint.
type Client struct {
	baseURL string
	org     Organization
	client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration, org Organization) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		org:     org,
		client:  &http.Client{Timeout: timeout},
	}
}

// Render returns the PDF bytes for r.
func (c *Client) Render(ctx context.Context, r Receipt) ([]byte, error) {
	html, err := HTML(c.org, r)
	if err != nil {
		return nil, fmt.Errorf("rendering receipt html: %w", err)
	}

	var body bytes.Buffer

	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}

	if _, err := part.Write(html); err != nil {
		return nil, fmt.Errorf("writing form file: %w", err)
	}

	if err := mw.WriteField("printBackground", "true"); err != nil {
		return nil, fmt.Errorf("writing form field: %w", err)
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/forms/chromium/convert/html", &body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from receipt renderer", resp.StatusCode)
	}

	pdf, err := io.ReadAll(io.LimitReader(resp.Body, maxPDFSize))
	if err != nil {
		return nil, fmt.Errorf("reading pdf: %w", err)
	}

	return pdf, nil
}
