// Package authservice owns sign-up accounts inside the identity-access
// context. Registering an account announces user.created; the account is
// flagged onboarded when user-service reports the profile completed.
package authservice
