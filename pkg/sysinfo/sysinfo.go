// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package sysinfo describes the host an identification report was produced
// on.
package sysinfo

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

const unknown = "unknown"

var SysUnknown = SysInfo{
	Name:    runtime.GOOS,
	Release: unknown,
	Version: unknown,
}

type SysInfo struct {
	Name    string // GOOS
	Release string // distribution or product name, e.g. "Ubuntu", "macOS"
	Version string
}

func (s SysInfo) String() string {
	return strings.TrimSpace(s.Name + " " + s.Release + " " + s.Version)
}

var probes = map[string]func() (string, string){
	"linux":   linuxRelease,
	"darwin":  darwinRelease,
	"windows": windowsRelease,
}

// Stat describes the running system. Fields that cannot be determined are
// reported as "unknown".
func Stat() (*SysInfo, error) {
	return stat(runtime.GOOS), nil
}

func stat(goos string) *SysInfo {
	info := &SysInfo{Name: goos, Release: unknown, Version: unknown}
	if probe, ok := probes[goos]; ok {
		release, version := probe()
		info.Release, info.Version = orUnknown(release), orUnknown(version)
	}
	return info
}

func linuxRelease() (string, string) {
	f, err := os.Open("/etc/os-release")
	if err != nil {
		return "", ""
	}
	defer f.Close()

	kv := parseKeyValues(f, "=")
	return strings.Trim(kv["NAME"], `"`), strings.Trim(kv["VERSION"], `"`)
}

func darwinRelease() (string, string) {
	out, err := exec.Command("sw_vers").Output()
	if err != nil {
		return "macOS", ""
	}

	kv := parseKeyValues(bytes.NewReader(out), ":")
	return kv["ProductName"], kv["ProductVersion"]
}

func windowsRelease() (string, string) {
	out, err := exec.Command("cmd", "/c", "ver").Output()
	if err != nil {
		return "Windows", ""
	}
	return "Windows", strings.TrimSpace(string(out))
}

// parseKeyValues reads "key<sep>value" lines. Later keys win.
func parseKeyValues(r io.Reader, sep string) map[string]string {
	kv := make(map[string]string)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), sep)
		if !ok {
			continue
		}
		kv[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return kv
}

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}
	return s
}
