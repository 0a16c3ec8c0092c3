//go:build windows

package discovery

import (
	"golang.org/x/sys/windows/registry"
)

// RegistryKey is the HKEY_CURRENT_USER subkey the installer writes.
const RegistryKey = `Software\VRChat`

// Registry reads the install directory from the default value of
// HKEY_CURRENT_USER\Software\VRChat.
type Registry struct{}

func (Registry) InstallDir() (string, error) {
	k, err := registry.OpenKey(registry.CURRENT_USER, RegistryKey, registry.QUERY_VALUE)
	if err != nil {
		return "", &Error{Key: RegistryKey, Reason: "failed to open registry key", Err: err}
	}
	defer func() { _ = k.Close() }()

	v, _, err := k.GetStringValue("")
	if err != nil {
		return "", &Error{Key: RegistryKey, Reason: "failed to read registry value", Err: err}
	}
	return v, nil
}
