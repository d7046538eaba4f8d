package tasklink

import "errors"

// ErrNotFound is returned by stores when a lookup matches no record.
var ErrNotFound = errors.New("not found")

// ErrMultipleUsers means an association query found more than one distinct
// owner for a single external comment or issue. The association index cannot
// legitimately disagree with itself, so this is never resolved by picking one.
var ErrMultipleUsers = errors.New("multiple users linked")

// ErrUserNotFound means a bot-authored event arrived with no prior
// association. Internal bot actions record their association before GitHub
// delivers the webhook; a missing one signals the webhook outran that write.
// Bot users are never provisioned from webhook payloads.
var ErrUserNotFound = errors.New("user not found")
