package domain

import "errors"

// Credentials are the OAuth 1.0a keys the broker issues per application and user
type Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
	Token          string
	TokenSecret    string
}

// Validate ensures every key is present
func (c *Credentials) Validate() error {
	if c.ConsumerKey == "" || c.ConsumerSecret == "" {
		return errors.New("consumer key and secret are required")
	}
	if c.Token == "" || c.TokenSecret == "" {
		return errors.New("oauth token and token secret are required")
	}
	return nil
}
