package version

// Version is the release reported by -version and stored with run history.
const Version = "2.0.0"
