package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const compilePath = "/api/v1/compile"

// envelope mirrors the service's JSON error response.
type envelope struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details"`
}

func main() {
	server := flag.String("server", "http://127.0.0.1:8080", "texforge service base URL")
	file := flag.String("file", "", "local zip archive to upload")
	name := flag.String("name", "", "server-side archive name to compile")
	out := flag.String("out", "", "output PDF path (default: filename chosen by the server)")
	timeout := flag.Duration("timeout", 2*time.Minute, "request timeout")
	flag.Parse()

	if *file == "" && *name == "" {
		fmt.Fprintln(os.Stderr, "usage: texforge-cli -file project.zip | -name project.zip [-server URL] [-out result.pdf]")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, *server, *file, *name, *out); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, server, file, name, out string) error {
	req, err := buildRequest(ctx, server, file, name)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body failed: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if resp.StatusCode == http.StatusOK && strings.HasPrefix(contentType, "application/pdf") {
		target := out
		if target == "" {
			target = filenameFromDisposition(resp.Header.Get("Content-Disposition"))
		}
		if target == "" {
			target = "compiled.pdf"
		}
		if err := os.WriteFile(target, body, 0644); err != nil {
			return fmt.Errorf("write pdf failed: %w", err)
		}
		fmt.Printf("wrote %s (%d bytes)\n", target, len(body))
		return nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}
	if log, ok := env.Details["log"].(string); ok && log != "" {
		fmt.Fprintln(os.Stderr, "--- compiler log ---")
		fmt.Fprintln(os.Stderr, log)
		fmt.Fprintln(os.Stderr, "--------------------")
	}
	return fmt.Errorf("%s (code %d)", env.Message, env.Code)
}

func buildRequest(ctx context.Context, server, file, name string) (*http.Request, error) {
	url := strings.TrimSuffix(server, "/") + compilePath

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read archive failed: %w", err)
		}
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		part, err := writer.CreateFormFile("archive", filepath.Base(file))
		if err != nil {
			return nil, fmt.Errorf("build multipart body failed: %w", err)
		}
		if _, err := part.Write(data); err != nil {
			return nil, fmt.Errorf("build multipart body failed: %w", err)
		}
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("build multipart body failed: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
		if err != nil {
			return nil, fmt.Errorf("build request failed: %w", err)
		}
		req.Header.Set("Content-Type", writer.FormDataContentType())
		return req, nil
	}

	payload, err := json.Marshal(map[string]string{"filename": name})
	if err != nil {
		return nil, fmt.Errorf("encode request failed: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func filenameFromDisposition(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}
