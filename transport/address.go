package transport

import (
	"fmt"
	"path/filepath"
)

type Scheme string

const (
	// Unix domain sockets, one file per channel: brokers in different processes.
	IPC Scheme = "ipc"
	// In-process: brokers, workers and clients sharing one Context.
	Inproc Scheme = "inproc"
)

// Channel name suffixes; a broker named DC1 binds DC1-cloud, DC1-localfe etc.
const (
	SuffixCloud         = "cloud"
	SuffixLocalFrontend = "localfe"
	SuffixLocalBackend  = "localbe"
	SuffixMonitor       = "monitor"
)

// The address of one of a broker's channels.
type Address struct {
	scheme       Scheme
	name, suffix string
	// Directory for IPC socket files; the working directory if empty.
	dir string
}

func BrokerAddress(scheme Scheme, dir, name, suffix string) Address {
	return Address{scheme: scheme, dir: dir, name: name, suffix: suffix}
}

func (a Address) ToUrl() string {
	switch a.scheme {
	case IPC:
		file := fmt.Sprintf("%s-%s.ipc", a.name, a.suffix)
		if a.dir != "" {
			file = filepath.Join(a.dir, file)
		}
		return "ipc://" + file
	case Inproc:
		return fmt.Sprintf("inproc://%s-%s", a.name, a.suffix)
	default:
		return ""
	}
}

func (a Address) String() string {
	return a.name + "-" + a.suffix
}

func ParseScheme(s string) (Scheme, error) {
	switch Scheme(s) {
	case IPC, Inproc:
		return Scheme(s), nil
	case "":
		return IPC, nil
	}
	return "", fmt.Errorf("transport: unsupported scheme %q", s)
}
