// Package userservice keeps learner profiles inside the identity-access
// context. Profiles are seeded from auth's user.created and completing one
// emits user.profile-completed back to auth.
package userservice
