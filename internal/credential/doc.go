// Package credential reads the claims embedded in access and refresh
// credentials.
//
// Credentials are JWTs issued by the remote authentication service. The
// client never verifies their signatures: the service does that on every
// call. Claims are read only to make UX decisions (is the session still
// usable, whose name goes in the greeting), so the check here is advisory
// and not a security boundary.
//
// A credential that cannot be decoded is indistinguishable from an expired
// one to every caller: both mean "treat as unauthenticated".
package credential
