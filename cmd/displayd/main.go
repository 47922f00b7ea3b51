// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"os"
	"os/exec"

	"github.com/godbus/dbus/v5"
	"github.com/linuxdeepin/go-lib/dbusutil"
	x "github.com/linuxdeepin/go-x11-client"

	"github.com/wickywonka/Sunshine/display"
)

func main() {
	sessionBus, err := dbus.SessionBus()
	if err != nil {
		display.Logger().Warning(err)
		os.Exit(1)
	}

	service, err := dbusutil.NewService(sessionBus)
	if err != nil {
		display.Logger().Warning(err)
		os.Exit(1)
	}

	xConn, err := x.NewConn()
	if err != nil {
		display.Logger().Warning("failed to connect to X server:", err)
		os.Exit(1)
	}

	adapter := display.NewX11Adapter(xConn)

	store := display.NewJournalStore("")
	session := display.NewSession(adapter, store, nil)

	deinit, err := session.Init()
	if err != nil {
		display.Logger().Warning("session init failed:", err)
	}
	defer deinit()

	facade := display.NewDBusFacade(session)
	err = display.Export(service, facade)
	if err != nil {
		display.Logger().Warning("failed to export display facade:", err)
		os.Exit(1)
	}

	go func() {
		display.Logger().Info("systemd-notify --ready")
		cmd := exec.Command("systemd-notify", "--ready")
		_ = cmd.Run()
	}()

	service.Wait()
}
