package command

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"game-soul-technology/quickqueue/quickqueue-server/pkg/infra"
	"io"
	"net/http"
	"os"

	"github.com/imroc/req/v3"
	"github.com/spf13/cobra"
)

// Remote is a connection to a running quickqueue server.
type Remote struct {
	Server   string
	Password string
	Debug    bool

	Out io.Writer

	client *req.Client
}

type apiError struct {
	Error string `json:"error"`
	Next  string `json:"next"`
}

// BindRemote registers the connection flags on root.
func BindRemote(root *cobra.Command) *Remote {
	server := os.Getenv("QUEUECTL_SERVER")
	if server == "" {
		server = "http://localhost:8080"
	}

	remote := &Remote{Out: os.Stdout}
	root.PersistentFlags().StringVar(&remote.Server, "server", server, "base url of the quickqueue server")
	root.PersistentFlags().StringVar(&remote.Password, "password", os.Getenv("QUEUECTL_PASSWORD"), "admin password")
	root.PersistentFlags().BoolVar(&remote.Debug, "debug", false, "dump every request and response")
	return remote
}

func (r *Remote) connect() *req.Client {
	if r.client == nil {
		r.client = infra.NewHttpClient(r.Server, r.Debug)
	}
	return r.client
}

// login stores the admin cookie in the client's cookie jar.
func (r *Remote) login(ctx context.Context) error {
	return r.call(ctx, http.MethodPost, "/admin/login", map[string]string{"password": r.Password}, io.Discard)
}

func (r *Remote) call(ctx context.Context, method, path string, body any, out io.Writer) error {
	request := r.connect().R().SetContext(ctx).SetErrorResult(&apiError{})
	if method == http.MethodGet {
		infra.RetryRead(request)
	}
	if body != nil {
		request.SetBody(body)
	}

	resp, err := request.Send(method, path)
	if err != nil {
		return fmt.Errorf("%v %v failed: %w", method, path, err)
	}

	if resp.IsErrorState() {
		if apiErr, ok := resp.ErrorResult().(*apiError); ok && apiErr.Error != "" {
			if apiErr.Next != "" {
				return fmt.Errorf("%v (next: %v)", apiErr.Error, apiErr.Next)
			}
			return fmt.Errorf("%v", apiErr.Error)
		}
		return fmt.Errorf("%v %v failed with status[%v]", method, path, resp.Status)
	}

	if resp.StatusCode == http.StatusNoContent || len(resp.Bytes()) == 0 {
		return nil
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, resp.Bytes(), "", "  "); err != nil {
		_, err = out.Write(resp.Bytes())
		return err
	}
	pretty.WriteByte('\n')
	_, err = pretty.WriteTo(out)
	return err
}
