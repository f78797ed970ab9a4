// Package prelude registers every built-in driver provider.
package prelude

import (
	_ "glade/pkg/driver/httpclient/native"
	_ "glade/pkg/driver/httpclient/termux"
)
