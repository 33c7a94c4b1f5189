//go:build wpp_norun

package host

// NewHost returns a Host whose Run/Pipe always fail with run-disabled,
// selected by building with -tags wpp_norun.
func NewHost() Host {
	return Disabled{}
}
