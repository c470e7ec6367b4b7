// Package moderation implements the /kick command: it checks the invoker's
// role and permission, validates the target and reason, removes the member,
// and records the action so recruiters can see why an applicant was denied.
package moderation
