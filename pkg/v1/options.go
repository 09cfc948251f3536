package v1

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	authorName    string
	authorEmail   string
	caseSensitive bool
	exclude       []string
	rawHTML       bool
}

// WithAuthor sets the identity recorded on commits made by Save.
func WithAuthor(name, email string) Option {
	return func(c *clientConfig) {
		c.authorName = name
		c.authorEmail = email
	}
}

// WithCaseSensitiveSearch disables case folding in Search.
func WithCaseSensitiveSearch() Option {
	return func(c *clientConfig) {
		c.caseSensitive = true
	}
}

// WithSearchExclude hides paths matching gitignore-style patterns from Search.
func WithSearchExclude(patterns ...string) Option {
	return func(c *clientConfig) {
		c.exclude = append(c.exclude, patterns...)
	}
}

// WithRawHTML keeps sanitized inline HTML when rendering pages.
func WithRawHTML() Option {
	return func(c *clientConfig) {
		c.rawHTML = true
	}
}
