//go:build !windows

package discovery

// RegistryKey is the HKEY_CURRENT_USER subkey the installer writes.
const RegistryKey = `Software\VRChat`

// Registry is unavailable outside Windows and always reports ErrUnsupported.
type Registry struct{}

func (Registry) InstallDir() (string, error) { return "", ErrUnsupported }
