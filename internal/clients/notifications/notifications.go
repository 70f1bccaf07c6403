package notifications

// Notifier announces fetch outcomes to the user.
type Notifier interface {
	NotifyDownloadComplete(title, episode, quality, savedPath string)
	NotifyDownloadError(title, episode string, err error)
	Test() error
}
