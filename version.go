package headless

// Version is the release of the headless module.
var Version = "0.1.0"
