package github

import "time"

// Commit is a partial GitHub commit document with fields we use
type Commit struct {
	SHA     string       `json:"sha"`
	HTMLURL string       `json:"html_url"`
	Commit  CommitDetail `json:"commit"`
	Author  *User        `json:"author"`
}

// CommitDetail is the git level part of a commit
type CommitDetail struct {
	Message   string    `json:"message"`
	Author    Signature `json:"author"`
	Committer Signature `json:"committer"`
}

// Signature is a git author or committer line
type Signature struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Date  time.Time `json:"date"`
}

// User is a partial GitHub user document
type User struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}

// CommitRef names one commit by owner, repository and sha
type CommitRef struct {
	Owner string
	Repo  string
	SHA   string
}

// Short returns the first eight characters of the sha
func (r CommitRef) Short() string {
	if len(r.SHA) > 8 {
		return r.SHA[:8]
	}
	return r.SHA
}

// URL returns the canonical web URL of the commit
func (r CommitRef) URL() string {
	return "https://github.com/" + r.Owner + "/" + r.Repo + "/commit/" + r.SHA
}
