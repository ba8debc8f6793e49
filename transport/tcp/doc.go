// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp implements the ZMTP tcp:// transport: a Dialer and
// Listener over net.Conn, with optional CPU-affinity pinning of the
// goroutine that calls Listen, for high-connection-rate servers.
package tcp
