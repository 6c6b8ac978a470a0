// Package database provides access to the TiDB/MySQL server holding the
// academic calendar.
//
// Configuration is read once at startup from the TIDB_* environment variables
// and validated before the MCP server starts. Each tool invocation then opens
// its own short-lived session through a Connector and releases it when done:
//
//	sess, err := connector.Connect(ctx)
//	if err != nil {
//		return err
//	}
//	defer sess.Close()
//
// Connection failures are reported as *ConnectionError, which matches
// ErrConnectionFailed with errors.Is.
package database
