package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
	"unicode/utf8"

	"github.com/rzbill/taxiway/pkg/client"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// addrFromEnv returns the protocol address from TAXIWAY_ADDR or a default.
func addrFromEnv() string {
	if addr := os.Getenv("TAXIWAY_ADDR"); addr != "" {
		return addr
	}
	return "127.0.0.1:8294"
}

// grpcAddrFromEnv returns the gRPC health address from TAXIWAY_GRPC or a default.
func grpcAddrFromEnv() string {
	if addr := os.Getenv("TAXIWAY_GRPC"); addr != "" {
		return addr
	}
	return "127.0.0.1:8296"
}

// HTTPURLFromEnv returns the admin API base URL from TAXIWAY_HTTP or a default.
func HTTPURLFromEnv() string {
	if v := os.Getenv("TAXIWAY_HTTP"); v != "" {
		return v
	}
	return "http://127.0.0.1:8295"
}

// commandContext derives a context bounded by the --timeout flag.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout <= 0 {
		timeout = client.DefaultTimeout
	}
	return context.WithTimeout(cmd.Context(), timeout)
}

// newProtocolClient builds a protocol client from the --addr and --timeout flags.
func newProtocolClient(cmd *cobra.Command) *client.Client {
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = addrFromEnv()
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")
	return client.New(addr, client.WithTimeout(timeout))
}

// dialGRPC creates a client connection with insecure transport for local/dev.
func dialGRPC(addr string) (*grpc.ClientConn, error) {
	return grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
}

// getJSON fetches base+path with query and decodes the JSON body into out.
func getJSON(ctx context.Context, base, path string, query url.Values, out any) error {
	u := base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		var body struct {
			Error string `json:"error"`
		}
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(b, &body) == nil && body.Error != "" {
			return fmt.Errorf("http error: %s: %s", resp.Status, body.Error)
		}
		return fmt.Errorf("http error: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// printJSON writes v as indented JSON.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// decodedJob returns a map with id and one of payload_json, payload_text, or payload_b64.
func decodedJob(id uint64, payload []byte) map[string]any {
	out := map[string]any{"id": id}
	// Try JSON first if it looks like JSON
	if len(payload) > 0 && (payload[0] == '{' || payload[0] == '[') {
		var v any
		if json.Unmarshal(payload, &v) == nil {
			out["payload_json"] = v
			return out
		}
	}
	if utf8.Valid(payload) {
		out["payload_text"] = string(payload)
		return out
	}
	out["payload_b64"] = base64.StdEncoding.EncodeToString(payload)
	return out
}

// durationMs formats milliseconds for table output.
func durationMs(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).String()
}
