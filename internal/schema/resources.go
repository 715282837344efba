package schema

func init() {
	registerMessage()
	registerFilePayload()
	registerGroup()
	registerSession()
	registerSessionFile()
	registerDriveFile()
	registerUser()
}

func registerMessage() {
	Register("message", Object(
		"A chat message in a group or passkey session",
		map[string]*Schema{
			"id":             String("Server-assigned message identifier"),
			"groupId":        Int("ID of the group this message belongs to (group chat only)"),
			"passkey":        String("Passkey of the session this message belongs to (sessions only)"),
			"senderUsername": String("Username of the sender"),
			"type":           Enum("Kind of message", "text", "file"),
			"content":        String("Message text, or a JSON file payload for file messages"),
			"timestamp":      Timestamp("When the message was sent"),
		},
		"id", "senderUsername", "type", "content", "timestamp",
	))
}

func registerFilePayload() {
	Register("file_payload", Object(
		"The JSON document carried in the content of a file message",
		map[string]*Schema{
			"fileId":     String("Identifier of the shared file"),
			"fileName":   String("Original file name"),
			"fileSize":   Int("File size in bytes"),
			"fileType":   String("MIME type of the file"),
			"visibility": Enum("Who can see the file", "all", "selected"),
			"visibleTo":  Array(String("Username"), "Usernames allowed to see a selected-visibility file"),
		},
		"fileId", "fileName",
	))
}

func registerGroup() {
	Register("group", Object(
		"A persistent password-protected chat group",
		map[string]*Schema{
			"id":        Int("Unique group identifier"),
			"name":      String("Group display name"),
			"createdBy": String("Username of the group creator"),
			"members":   Array(String("Username"), "Group members"),
			"createdAt": Timestamp("When the group was created"),
		},
		"id", "name",
	))
}

func registerSession() {
	Register("session", Object(
		"An ephemeral file-sharing session joined by passkey",
		map[string]*Schema{
			"passkey":      String("8-character session passkey (A-Z, 0-9)"),
			"createdBy":    String("Username of the session creator"),
			"participants": Array(String("Username"), "Session participants"),
			"createdAt":    Timestamp("When the session was created"),
		},
		"passkey",
	))
}

func registerSessionFile() {
	Register("session_file", Object(
		"A file shared inside a passkey session",
		map[string]*Schema{
			"id":         Int("Unique file identifier"),
			"fileName":   String("Original file name"),
			"fileType":   String("MIME type of the file"),
			"uploadedBy": String("Username of the uploader"),
			"uploadedAt": Timestamp("When the file was uploaded"),
		},
		"id", "fileName",
	))
}

func registerDriveFile() {
	Register("drive_file", Object(
		"A file stored in the user's personal drive",
		map[string]*Schema{
			"id":       String("Unique file identifier"),
			"fileName": String("Original file name"),
			"fileType": String("MIME type of the file"),
			"fileSize": Int("File size in bytes"),
		},
		"id", "fileName",
	))
}

func registerUser() {
	Register("user", Object(
		"A registered PassDrive user",
		map[string]*Schema{
			"id":       Int("Unique user identifier"),
			"username": String("Login username"),
			"email":    String("Email address"),
			"admin":    Bool("Whether the user has admin privileges"),
		},
		"id", "username",
	))
}
