package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	perr "garden/internal/platform/errors"
)

var shaPattern = regexp.MustCompile(`^[0-9a-fA-F]{7,40}$`)

// ParseCommitURL splits https://github.com/<owner>/<repo>/commit/<sha>.
// A trailing path, query or fragment is ignored
func ParseCommitURL(raw string) (CommitRef, error) {
	bad := func(msg string) (CommitRef, error) {
		return CommitRef{}, perr.WithField(perr.Newf(perr.ErrorCodeValidation, "commit url %q: %s", raw, msg), "url")
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return bad("not a url")
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return bad("scheme must be http or https")
	}
	if h := strings.ToLower(u.Hostname()); h != "github.com" && h != "www.github.com" {
		return bad("host must be github.com")
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 4 || parts[2] != "commit" || parts[0] == "" || parts[1] == "" {
		return bad("path must be /<owner>/<repo>/commit/<sha>")
	}
	if !shaPattern.MatchString(parts[3]) {
		return bad("sha must be 7 to 40 hex characters")
	}
	return CommitRef{Owner: parts[0], Repo: parts[1], SHA: strings.ToLower(parts[3])}, nil
}

// Commit performs GET /repos/{owner}/{repo}/commits/{sha}
func (c *Client) Commit(ctx context.Context, ref CommitRef) (Commit, error) {
	path := fmt.Sprintf("/repos/%s/%s/commits/%s", url.PathEscape(ref.Owner), url.PathEscape(ref.Repo), url.PathEscape(ref.SHA))
	resp, err := c.get(ctx, path)
	if err != nil {
		return Commit{}, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Error().Err(cerr).Str("path", path).Msg("github close body failed")
		}
	}()

	var out Commit
	b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return Commit{}, perr.Wrap(err, perr.ErrorCodeUnavailable, "github read body failed")
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return Commit{}, perr.Wrap(err, perr.ErrorCodeJSON, "github commit decode failed")
	}
	if out.Commit.Author.Date.IsZero() {
		return Commit{}, perr.Newf(perr.ErrorCodeDecode, "github commit %s has no author date", ref.Short())
	}
	return out, nil
}
