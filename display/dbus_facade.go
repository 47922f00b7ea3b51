// SPDX-License-Identifier: GPL-3.0-or-later

package display

import (
	"github.com/godbus/dbus/v5"
	"github.com/linuxdeepin/go-lib/dbusutil"
)

const (
	dbusServiceName = "org.sunshinestream.Display1"
	dbusInterface   = "org.sunshinestream.Display1"
	dbusPath        = "/org/sunshinestream/Display1"
)

// DBusFacade exports Session over D-Bus. It holds no state of its own:
// every operation delegates straight to the session, which owns the
// mutex.
type DBusFacade struct {
	session *Session
}

// NewDBusFacade wraps session for D-Bus export.
func NewDBusFacade(session *Session) *DBusFacade {
	return &DBusFacade{session: session}
}

func (*DBusFacade) GetInterfaceName() string {
	return dbusInterface
}

// ConfigureDisplay is the dbus-exposed entry point driving config
// parsing, topology planning, and apply. cfgPath may be empty to use
// the default video config location.
func (f *DBusFacade) ConfigureDisplay(cfgPath string, enableSops bool, width, height, fps int32, enableHDR bool) (int32, *dbus.Error) {
	logger.Debug("dbus call ConfigureDisplay", cfgPath, enableSops, width, height, fps, enableHDR)

	cfg, err := LoadVideoConfig(cfgPath)
	if err != nil {
		logger.Warning("failed to load video config:", err)
		return int32(ResultConfigParseFail), nil
	}

	launch := LaunchSession{
		EnableSops: enableSops,
		Width:      width,
		Height:     height,
		FPS:        fps,
		EnableHDR:  enableHDR,
	}

	result := f.session.ConfigureDisplay(cfg, launch)
	return int32(result.Code), nil
}

// RestoreState is the dbus-exposed entry point for an unconditional
// revert attempt.
func (f *DBusFacade) RestoreState() *dbus.Error {
	logger.Debug("dbus call RestoreState")
	f.session.RestoreState()
	return nil
}

// ResetPersistence is the dbus-exposed entry point that attempts one
// revert then unconditionally deletes the journal.
func (f *DBusFacade) ResetPersistence() *dbus.Error {
	logger.Debug("dbus call ResetPersistence")
	f.session.ResetPersistence()
	return nil
}

// Export registers the facade on service and requests its well-known
// name, mirroring display1/display.go's Start.
func Export(service *dbusutil.Service, facade *DBusFacade) error {
	err := service.Export(dbusPath, facade)
	if err != nil {
		return err
	}
	return service.RequestName(dbusServiceName)
}
