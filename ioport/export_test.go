// SPDX-License-Identifier: Unlicense OR MIT

package ioport

const MaxLog = maxLog
