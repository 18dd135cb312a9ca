package installer

// phrase is an installer string keyed by its code. Error phrases also
// become the skin's main error code when emitted.
type phrase struct {
	text  string
	error bool
}

var phrases = map[string]phrase{
	"bad_request":              {"Invalid data provided.", true},
	"fs_unavailable":           {"Could not access filesystem.", true},
	"fs_error":                 {"Filesystem error.", true},
	"fs_no_plugins_dir":        {"Unable to locate the extension directory.", true},
	"no_package":               {"Installation package not available.", true},
	"download_failed":          {"Download failed.", true},
	"folder_exists":            {"Destination folder already exists.", true},
	"mkdir_failed":             {"Could not create directory.", true},
	"incompatible_archive":     {"The package could not be installed.", true},
	"no_files":                 {"The package contains no files.", true},
	"no_plugins_found":         {"No valid plugins were found.", true},
	"process_failed":           {"Extension installation failed.", true},
	"downloading_package":      {"Downloading installation package from <span class=\"code\">%s</span>...", false},
	"unpack_package":           {"Unpacking the package...", false},
	"installing_package":       {"Installing the extension...", false},
	"remove_old":               {"Removing the old version of the extension...", false},
	"process_success":          {"Extension installed successfully.", false},
	"process_success_specific": {"Successfully installed the extension <strong>%s %s</strong>.", false},
}
