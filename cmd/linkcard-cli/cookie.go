package main

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Run executes the cookie set command.
func (c *CookieSetCmd) Run(deps *Dependencies) error {
	value := strings.TrimSpace(c.Value)
	if value == "" {
		fmt.Fprintln(deps.Stderr, "error: cookie value is empty")
		return fmt.Errorf("cookie value is empty")
	}

	days := c.Days
	if days <= 0 {
		days = deps.CookieExpiryDays
	}
	if err := deps.Cookies.Save(deps.Ctx, value, days); err != nil {
		return err
	}

	e, _, err := deps.Cookies.Entry(deps.Ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(deps.Stdout, "Saved cookie (expires %s)\n", e.ExpiresAt.Format(time.DateOnly))
	return nil
}

// Run executes the cookie show command.
func (c *CookieShowCmd) Run(deps *Dependencies) error {
	e, ok, err := deps.Cookies.Entry(deps.Ctx)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(deps.Stdout, "No cookie saved")
		return nil
	}

	value := e.Value
	if !c.Reveal {
		value = mask(value)
	}
	fmt.Fprintf(deps.Stdout, "value:   %s\nsaved:   %s\nexpires: %s\n",
		value, e.CreatedAt.Format(time.DateOnly), e.ExpiresAt.Format(time.DateOnly))
	return nil
}

// Run executes the cookie delete command.
func (c *CookieDeleteCmd) Run(deps *Dependencies) error {
	if err := deps.Cookies.Delete(deps.Ctx); err != nil {
		return err
	}
	fmt.Fprintln(deps.Stdout, "Deleted saved cookie")
	return nil
}

// mask keeps the first 8 characters of a cookie value.
func mask(v string) string {
	const keep = 8
	if utf8.RuneCountInString(v) <= keep {
		return strings.Repeat("*", utf8.RuneCountInString(v))
	}
	return string([]rune(v)[:keep]) + "…"
}
