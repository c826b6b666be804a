// Package cognito implements session.IdentityProvider on top of an AWS
// Cognito user pool.
//
// Pool API calls (GetUser, token refresh, sign-out) go through the AWS
// SDK; browser sign-in uses the pool's hosted UI with an authorization
// code + PKCE exchange. Lifecycle events are published to the engine's
// hub so the synchronizer keeps the store current.
package cognito
