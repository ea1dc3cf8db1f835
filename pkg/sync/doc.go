/*
The sync package implements reverso's one-way mirroring algorithm. A Task
describes a source tree, a destination tree, and the filters that decide which
source entries are mirrored.

A run of a task happens in four phases, each finishing before the next starts:
1) Collection -- The source tree is walked top-down and filtered with the
   include, exclude, and require patterns. The destination tree is listed
   without any filtering.
2) Reduction -- Entries matching an "only newest" pattern are grouped by that
   pattern, and only the most recently created entry of each group is kept.
3) Planning -- The filtered source entries are compared against the
   destination listing to decide which files to add, overwrite, or remove.
4) Execution -- The plan is applied one entry at a time. A failure on one
   entry is reported and the remaining entries are still applied.

Overwrites never leave a partially written file at the destination path. The
new contents are staged next to the destination, and swapped in with a rename.
See Overwrite for the details.

Directories are never synced on their own. They're created as needed when
adding files, and only removed once they're empty.
*/
package sync
