package config

// SMTPRelayAddr is the host:port OTP mail is relayed through. Empty disables delivery.
func SMTPRelayAddr() string {
	return GetEnv("SMTP_RELAY_ADDR", "")
}

// SMTPFrom is the envelope and header sender of OTP mail.
func SMTPFrom() string {
	return GetEnv("SMTP_FROM", "no-reply@janseva.local")
}

// SMTPUsername enables PLAIN auth against the relay when set.
func SMTPUsername() string {
	return GetEnv("SMTP_USERNAME", "")
}

func SMTPPassword() string {
	return GetEnv("SMTP_PASSWORD", "")
}

// DKIMDomain, DKIMSelector and DKIMKeyPath enable DKIM signing when all three are set.
func DKIMDomain() string {
	return GetEnv("DKIM_DOMAIN", "")
}

func DKIMSelector() string {
	return GetEnv("DKIM_SELECTOR", "")
}

func DKIMKeyPath() string {
	return GetEnv("DKIM_KEY_PATH", "")
}

// MailboxListenAddr starts the local capture mailbox when set.
func MailboxListenAddr() string {
	return GetEnv("MAILBOX_LISTEN_ADDR", "")
}

// MailboxDomain is the domain the capture mailbox announces and accepts.
func MailboxDomain() string {
	return GetEnv("MAILBOX_DOMAIN", "janseva.local")
}

// MailboxCheckSPF runs an SPF lookup for every captured message.
func MailboxCheckSPF() bool {
	return parseBoolEnv("MAILBOX_CHECK_SPF", false)
}

// MailboxMaxMessageBytes caps a captured message.
func MailboxMaxMessageBytes() int {
	return parseIntEnv("MAILBOX_MAX_MESSAGE_BYTES", 64<<10)
}

// MailboxMaxRecipients caps recipients per captured message.
func MailboxMaxRecipients() int {
	return parseIntEnv("MAILBOX_MAX_RECIPIENTS", 10)
}
