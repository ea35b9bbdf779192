// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

/*
Package typeinfo contains code relating to Go record types and their mapping
onto SQL tables. As much as possible, reflection code is limited to this
package. It contains the logic for building schema descriptors from record
types, mapping Go types to SQL type keywords, and converting values to and
from the SQL text representation.
*/
package typeinfo
